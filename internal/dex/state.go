// Package dex reads live Uniswap V3 pool state over JSON-RPC.
package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BlockSource reports the chain head. Callers implementing it get every
// read of one ReadPool pinned to the same block.
type BlockSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// TokenMeta is the on-chain metadata of an ERC20 token.
type TokenMeta struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// PoolState is a point-in-time read of a pool contract.
type PoolState struct {
	Address      string    `json:"address"`
	Block        uint64    `json:"block,omitempty"`
	Token0       TokenMeta `json:"token0"`
	Token1       TokenMeta `json:"token1"`
	Fee          uint32    `json:"fee"`
	TickSpacing  int32     `json:"tickSpacing"`
	Liquidity    string    `json:"liquidity"`
	SqrtPriceX96 string    `json:"sqrtPriceX96"`
	Tick         int32     `json:"tick"`
	// Price is token1 per token0 adjusted for decimals.
	Price string `json:"price"`
}

// Reader reads pool state and caches token metadata by address.
type Reader struct {
	caller ContractCaller
	logger *zap.Logger

	mu     sync.RWMutex
	tokens map[common.Address]TokenMeta
}

func NewReader(caller ContractCaller, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, logger: logger, tokens: make(map[common.Address]TokenMeta)}
}

// ReadPool loads immutable and live fields of the pool at address.
func (r *Reader) ReadPool(ctx context.Context, address string) (PoolState, error) {
	if r.caller == nil {
		return PoolState{}, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(address) {
		return PoolState{}, fmt.Errorf("invalid pool address %q", address)
	}
	pool := common.HexToAddress(address)

	var block *big.Int
	if src, ok := r.caller.(BlockSource); ok {
		head, err := src.LatestBlockNumber(ctx)
		if err != nil {
			return PoolState{}, fmt.Errorf("latest block: %w", err)
		}
		block = new(big.Int).SetUint64(head)
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, block, poolABI, "token0")
	if err != nil {
		return PoolState{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = r.call(ctx, pool, block, poolABI, "token1")
	if err != nil {
		return PoolState{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = r.call(ctx, pool, block, poolABI, "fee")
	if err != nil {
		return PoolState{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("fee: %w", err)
	}

	values, err = r.call(ctx, pool, block, poolABI, "tickSpacing")
	if err != nil {
		return PoolState{}, err
	}
	tickSpacingInt, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}

	values, err = r.call(ctx, pool, block, poolABI, "liquidity")
	if err != nil {
		return PoolState{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = r.call(ctx, pool, block, poolABI, "slot0")
	if err != nil {
		return PoolState{}, err
	}
	if len(values) < 2 {
		return PoolState{}, fmt.Errorf("slot0: expected at least 2 values, got %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}

	meta0 := r.tokenMeta(ctx, token0)
	meta1 := r.tokenMeta(ctx, token1)

	return PoolState{
		Address:      pool.Hex(),
		Block:        blockNumber(block),
		Token0:       meta0,
		Token1:       meta1,
		Fee:          uint32(feeInt.Uint64()),
		TickSpacing:  tickSpacing,
		Liquidity:    liquidity.String(),
		SqrtPriceX96: sqrtPrice.String(),
		Tick:         tick,
		Price:        PriceFromSqrtX96(sqrtPrice, meta0.Decimals, meta1.Decimals).String(),
	}, nil
}

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// PriceFromSqrtX96 converts a Q64.96 square-root price into token1 per
// token0, scaled by the token decimals and rounded to 18 places.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero
	}
	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	ratio := decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(q192, 0), 40)
	shift := int32(decimals0) - int32(decimals1)
	return ratio.Shift(shift).Round(18)
}

func blockNumber(block *big.Int) uint64 {
	if block == nil {
		return 0
	}
	return block.Uint64()
}

func (r *Reader) call(ctx context.Context, to common.Address, block *big.Int, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// tokenMeta returns cached metadata, reading it on first use. Read failures
// are logged and cached as address-only metadata.
func (r *Reader) tokenMeta(ctx context.Context, token common.Address) TokenMeta {
	r.mu.RLock()
	meta, ok := r.tokens[token]
	r.mu.RUnlock()
	if ok {
		return meta
	}

	meta, err := r.fetchTokenMeta(ctx, token)
	if err != nil {
		r.logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	r.mu.Lock()
	r.tokens[token] = meta
	r.mu.Unlock()
	return meta
}

func (r *Reader) fetchTokenMeta(ctx context.Context, token common.Address) (TokenMeta, error) {
	meta := TokenMeta{Address: token.Hex()}

	stringABI, err := erc20StringABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := r.call(ctx, token, nil, stringABI, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := r.call(ctx, token, nil, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := r.call(ctx, token, nil, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
