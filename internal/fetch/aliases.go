package fetch

import (
	"github.com/odysseus0/sharedfeed/internal/config"
	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

type Config = config.Config
type Store = store.Store
type Feed = model.Feed
type FetchResult = model.FetchResult
type FetchReport = model.FetchReport
type UpsertEntryInput = model.UpsertEntryInput
