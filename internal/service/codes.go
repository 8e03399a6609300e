package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type codeService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewCodeService creates a new product code service
func NewCodeService(repos *repository.Repositories, logger *zap.Logger) *codeService {
	return &codeService{
		repos:  repos,
		logger: logger,
	}
}

// FormatCode renders a sequence number into a product code: the prefix followed
// by the number zero-padded to 3 digits. Numbers past 999 keep all their digits
// ("HA", 1000 -> "HA1000").
func FormatCode(prefix string, sequence int64) string {
	return fmt.Sprintf("%s%03d", prefix, sequence)
}

// PreviewNextCode computes the code the next allocation would produce from the
// currently stored sequence. Pure display value: a concurrent allocation can
// claim this number first, so callers must not treat it as reserved.
func PreviewNextCode(prefix string, lastSequence int64) string {
	return FormatCode(prefix, lastSequence+1)
}

// AllocateNextCode atomically reserves the next sequence number for the set and
// returns it formatted as a product code. On any failure no number is reserved
// and the calling creation flow must abort; there is no fallback numbering.
func (s *codeService) AllocateNextCode(ctx context.Context, setID uuid.UUID, prefix string) (string, error) {
	sequence, err := s.repos.ProductSet.IncrementSequence(ctx, setID)
	if err != nil {
		if _, isNotFound := err.(*errors.ErrNotFound); isNotFound {
			return "", err
		}
		s.logger.Error("Failed to allocate product code",
			zap.String("set_id", setID.String()),
			zap.Error(err),
		)
		return "", &errors.ErrAllocation{SetID: setID.String(), Message: err.Error()}
	}

	return FormatCode(prefix, sequence), nil
}
