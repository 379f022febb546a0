package cli

import "github.com/odysseus0/sharedfeed/internal/model"

type OutputFormat = model.OutputFormat
type User = model.User
type Feed = model.Feed
type Folder = model.Folder
type Entry = model.Entry
type Stats = model.Stats
type FetchResult = model.FetchResult
type FetchReport = model.FetchReport
type EntryListOptions = model.EntryListOptions
type SearchOptions = model.SearchOptions

const (
	OutputTable = model.OutputTable
	OutputJSON  = model.OutputJSON
	OutputWide  = model.OutputWide
)
