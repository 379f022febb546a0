package cli

import "github.com/odysseus0/sharedfeed/internal/model"

type SubscribeResponse struct {
	Feed  *model.Feed `json:"feed"`
	Found bool        `json:"found"`
}

type UnsubscribeResponse struct {
	model.UnsubscribeResult
}

type RemoveFromFolderResponse struct {
	FeedID       int64 `json:"feed_id"`
	FolderExists bool  `json:"folder_exists"`
}

type MarkResponse struct {
	EntryID int64             `json:"entry_id"`
	State   string            `json:"state"`
	Scope   model.ChangeScope `json:"scope"`
	Changed int               `json:"changed"`
}

type RefreshResponse struct {
	Report  model.FetchReport `json:"report"`
	Entries []model.Entry     `json:"unread_entries"`
}

type DeleteUserResponse struct {
	Email         string                    `json:"email"`
	Subscriptions []model.UnsubscribeResult `json:"subscriptions"`
}
