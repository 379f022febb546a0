package store

import "github.com/odysseus0/sharedfeed/internal/model"

type User = model.User
type Feed = model.Feed
type Folder = model.Folder
type Entry = model.Entry
type Stats = model.Stats
type DataImport = model.DataImport
type FolderChange = model.FolderChange
type UnsubscribeResult = model.UnsubscribeResult
type SearchOptions = model.SearchOptions
type UpsertEntryInput = model.UpsertEntryInput
type ChangeScope = model.ChangeScope

const (
	ScopeSingle = model.ScopeSingle
	ScopeFeed   = model.ScopeFeed
	ScopeFolder = model.ScopeFolder
	ScopeAll    = model.ScopeAll
)
