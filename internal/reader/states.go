package reader

import (
	"context"

	"github.com/odysseus0/sharedfeed/internal/model"
)

// ChangeState marks an entry, and for range scopes every older entry in the
// scope, with the given state. An unrecognized state changes nothing.
func (m *Manager) ChangeState(ctx context.Context, userID, entryID int64, state string, scope model.ChangeScope) (int, error) {
	var read bool
	switch state {
	case model.StateRead:
		read = true
	case model.StateUnread:
	default:
		m.logger.Debug("ignoring unknown entry state", "user", userID, "entry", entryID, "state", state)
		return 0, nil
	}

	n, err := m.store.ChangeState(ctx, userID, entryID, read, scope)
	if err != nil {
		return 0, classify(err)
	}
	m.logger.Debug("entry states changed", "user", userID, "entry", entryID, "state", state, "scope", scope, "changed", n)
	return n, nil
}

func (m *Manager) ReadBy(ctx context.Context, userID, entryID int64) (bool, error) {
	read, err := m.store.ReadBy(ctx, userID, entryID)
	return read, classify(err)
}
