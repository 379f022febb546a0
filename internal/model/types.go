package model

import "time"

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Feed struct {
	ID            int64      `json:"id"`
	URL           string     `json:"url"`
	SiteURL       string     `json:"site_url,omitempty"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	ETag          string     `json:"etag,omitempty"`
	LastModified  string     `json:"last_modified,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	ErrorCount    int        `json:"error_count"`
	CreatedAt     time.Time  `json:"created_at"`
	FolderID      *int64     `json:"folder_id,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	TotalCount    int        `json:"total_count"`
}

type Folder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	FeedIDs   []int64   `json:"feed_ids"`
}

// Entry is one item of a feed. Read is the requesting user's flag and is
// only meaningful on entries returned by user-scoped queries.
type Entry struct {
	ID          int64     `json:"id"`
	FeedID      int64     `json:"feed_id"`
	FeedTitle   string    `json:"feed_title"`
	GUID        string    `json:"guid"`
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Author      string    `json:"author,omitempty"`
	Content     string    `json:"content,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
	Read        bool      `json:"read"`
}

type EntryState struct {
	ID      int64 `json:"id"`
	UserID  int64 `json:"user_id"`
	EntryID int64 `json:"entry_id"`
	Read    bool  `json:"read"`
}

type DeletedEntry struct {
	FeedID    int64     `json:"feed_id"`
	GUID      string    `json:"guid"`
	DeletedAt time.Time `json:"deleted_at"`
}

type Stats struct {
	Feeds   int `json:"feeds"`
	Folders int `json:"folders"`
	Unread  int `json:"unread"`
	Total   int `json:"total"`
}

// ChangeScope selects which entries besides the target one a read-state
// change touches.
type ChangeScope string

const (
	ScopeSingle ChangeScope = "single"
	ScopeFeed   ChangeScope = "feed"
	ScopeFolder ChangeScope = "folder"
	ScopeAll    ChangeScope = "all"
)

const (
	StateRead   = "read"
	StateUnread = "unread"
)

// FolderAll is the folder sentinel that addresses every subscription.
const FolderAll = "all"

type FolderChange struct {
	Feed      Feed    `json:"feed"`
	NewFolder Folder  `json:"new_folder"`
	OldFolder *Folder `json:"old_folder,omitempty"`
	// OldFolderDeleted reports that OldFolder lost its last feed and no longer exists.
	OldFolderDeleted bool `json:"old_folder_deleted"`
}

type UnsubscribeResult struct {
	FeedID          int64  `json:"feed_id"`
	DeletedFolderID *int64 `json:"deleted_folder_id,omitempty"`
	FeedDeleted     bool   `json:"feed_deleted"`
}

type DataImportStatus string

const (
	ImportNone    DataImportStatus = "none"
	ImportRunning DataImportStatus = "running"
	ImportSuccess DataImportStatus = "success"
	ImportError   DataImportStatus = "error"
)

type DataImport struct {
	UserID         int64            `json:"user_id"`
	Status         DataImportStatus `json:"status"`
	TotalFeeds     int              `json:"total_feeds"`
	ProcessedFeeds int              `json:"processed_feeds"`
	ShowAlert      bool             `json:"show_alert"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type FetchResult struct {
	FeedID      int64  `json:"feed_id"`
	FeedTitle   string `json:"feed_title"`
	FeedURL     string `json:"feed_url"`
	NewEntries  int    `json:"new_entries"`
	Updated     int    `json:"updated_entries"`
	Skipped     int    `json:"skipped_entries"`
	NotModified bool   `json:"not_modified"`
	Error       string `json:"error,omitempty"`
}

type FetchReport struct {
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Results   []FetchResult `json:"results"`
	Warnings  []string      `json:"warnings,omitempty"`
}

type EntryListOptions struct {
	FeedID   int64
	FolderID int64
	Status   string
	Limit    int
}

type SearchOptions struct {
	Query string
	Limit int
}

type UpsertEntryInput struct {
	FeedID      int64
	GUID        string
	URL         string
	Title       string
	Author      string
	Content     string
	Summary     string
	PublishedAt time.Time
}
