package pools

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"avocado/internal/model"
)

// checkPlaceholders rejects pages whose ids are not real pool addresses.
func checkPlaceholders(pools []model.Pool) error {
	for _, pool := range pools {
		if isPlaceholderID(pool.ID) {
			return fmt.Errorf("placeholder pool id %q in response", pool.ID)
		}
	}
	return nil
}

func isPlaceholderID(id string) bool {
	if strings.Contains(id, "...") || !common.IsHexAddress(id) {
		return true
	}
	return common.HexToAddress(id) == (common.Address{})
}

func equalFoldID(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
