package contract

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// lifecycleEvents are the events that carry an indexed bountyId as their first topic
var lifecycleEvents = []string{
	"BountyCreated", "BountyClaimed", "WorkSubmitted", "WorkApproved", "BountyCancelled", "BountyExpired",
}

// Activity is one decoded lifecycle event
type Activity struct {
	Event       string                 `json:"event"`
	BountyID    string                 `json:"bountyId"`
	BlockNumber uint64                 `json:"blockNumber"`
	TxHash      string                 `json:"txHash"`
	LogIndex    uint                   `json:"logIndex"`
	Data        map[string]interface{} `json:"data"`
}

// BountyActivity returns the lifecycle events of one bounty, oldest first
func (r *ContractReader) BountyActivity(ctx context.Context, id *big.Int, fromBlock uint64) ([]Activity, error) {
	topics := make([]common.Hash, 0, len(lifecycleEvents))
	for _, name := range lifecycleEvents {
		topics = append(topics, r.abi.Events[name].ID)
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{r.address},
		Topics:    [][]common.Hash{topics, {common.BigToHash(id)}},
	}

	logs, err := r.caller.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter bounty logs: %w", err)
	}

	activity := make([]Activity, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		entry, err := r.parseLog(log)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"tx_hash": log.TxHash.Hex(),
				"error":   err,
			}).Warn("Skipping undecodable log")
			continue
		}
		activity = append(activity, entry)
	}

	sort.SliceStable(activity, func(i, j int) bool {
		if activity[i].BlockNumber != activity[j].BlockNumber {
			return activity[i].BlockNumber < activity[j].BlockNumber
		}
		return activity[i].LogIndex < activity[j].LogIndex
	})
	return activity, nil
}

func (r *ContractReader) parseLog(log types.Log) (Activity, error) {
	if len(log.Topics) == 0 {
		return Activity{}, fmt.Errorf("log has no topics")
	}

	event, err := r.abi.EventByID(log.Topics[0])
	if err != nil {
		return Activity{}, err
	}

	values := make(map[string]interface{})

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return Activity{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(log.Data) > 0 {
		if err := r.abi.UnpackIntoMap(values, event.Name, log.Data); err != nil {
			return Activity{}, fmt.Errorf("unpack data: %w", err)
		}
	}

	entry := Activity{
		Event:       event.Name,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    log.Index,
		Data:        make(map[string]interface{}, len(values)),
	}
	for name, value := range values {
		if name == "bountyId" {
			entry.BountyID = fmt.Sprint(formatValue(value))
			continue
		}
		entry.Data[name] = formatValue(value)
	}
	return entry, nil
}

// formatValue renders ABI values in the same shapes the bounty JSON uses
func formatValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case common.Address:
		return v.Hex()
	case [32]byte:
		return hexutil.Encode(v[:])
	case common.Hash:
		return v.Hex()
	default:
		return v
	}
}
