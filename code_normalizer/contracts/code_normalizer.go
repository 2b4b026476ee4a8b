package contracts

import (
	"context"

	"github.com/meysamhadeli/codesim/code_normalizer/models"
)

type ICodeNormalizer interface {
	Normalize(ctx context.Context, source []byte) (models.TokenSequence, error)
	NormalizeFile(ctx context.Context, path string) (models.TokenSequence, error)
	Canonical(ctx context.Context, source []byte) (string, error)
	ClearCache() (int, error)
	GetCacheStats() (map[string]interface{}, error)
}
