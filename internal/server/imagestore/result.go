package imagestore

import (
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// DeleteOutcome classifies a remote delete.
type DeleteOutcome int

const (
	DeleteOK DeleteOutcome = iota
	DeleteNotFound
	DeleteFailed
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteOK:
		return "ok"
	case DeleteNotFound:
		return "not_found"
	case DeleteFailed:
		return "failed"
	default:
		return fmt.Sprintf("DeleteOutcome(%d)", int(o))
	}
}

// DeleteResult is the outcome of Delete. Err is set only for DeleteFailed
// and wraps common.ErrImageDelete.
type DeleteResult struct {
	Key     string
	Outcome DeleteOutcome
	Err     error
}

func failed(key string, err error) DeleteResult {
	return DeleteResult{
		Key:     key,
		Outcome: DeleteFailed,
		Err:     fmt.Errorf("%w: %s: %v", common.ErrImageDelete, key, err),
	}
}
