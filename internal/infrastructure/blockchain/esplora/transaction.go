package esplora

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

func (e *esplora) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	resp, err := e.request(ctx, http.MethodPost, "/tx", txHex)
	if err != nil {
		var respErr *responseError
		if errors.As(err, &respErr) && respErr.status == http.StatusBadRequest {
			return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, respErr.body)
		}
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

func (e *esplora) GetBlockHeight(ctx context.Context) (uint32, error) {
	resp, err := e.request(ctx, http.MethodGet, "/blocks/tip/height", "")
	if err != nil {
		return 0, err
	}

	blockHeight, err := strconv.ParseUint(strings.TrimSpace(resp), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid block height: %w", err)
	}

	return uint32(blockHeight), nil
}
