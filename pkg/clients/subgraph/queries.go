package subgraph

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
)

const roundsQuery = `
query Rounds($first: Int!, $skip: Int!, $startTimestamp_gt: Int!, $startTimestamp_lt: Int!) {
  rounds(
    where: { startTimestamp_gt: $startTimestamp_gt, startTimestamp_lt: $startTimestamp_lt }
    first: $first
    skip: $skip
    orderBy: startTimestamp
    orderDirection: asc
  ) {
    id
    startTimestamp
    startBlock
  }
}
`

const bondEventsQuery = `
query BondEvents($first: Int!, $skip: Int!, $delegator: String!, $timestamp_gt: Int!, $timestamp_lt: Int!) {
  bondEvents(
    where: { delegator: $delegator, timestamp_gt: $timestamp_gt, timestamp_lt: $timestamp_lt }
    first: $first
    skip: $skip
    orderBy: timestamp
    orderDirection: asc
  ) {
    timestamp
    round { id }
    transaction { id }
    additionalAmount
    bondedAmount
    newDelegate { id }
    oldDelegate { id }
  }
}
`

const unbondEventsQuery = `
query UnbondEvents($first: Int!, $skip: Int!, $delegator: String!, $timestamp_gt: Int!, $timestamp_lt: Int!) {
  unbondEvents(
    where: { delegator: $delegator, timestamp_gt: $timestamp_gt, timestamp_lt: $timestamp_lt }
    first: $first
    skip: $skip
    orderBy: timestamp
    orderDirection: asc
  ) {
    timestamp
    round { id }
    transaction { id }
    amount
    withdrawRound
    delegate { id }
  }
}
`

const transferBondEventsNewQuery = `
query TransferBondEvents($first: Int!, $skip: Int!, $delegator: String!, $timestamp_gt: Int!, $timestamp_lt: Int!) {
  transferBondEvents(
    where: { newDelegator: $delegator, timestamp_gt: $timestamp_gt, timestamp_lt: $timestamp_lt }
    first: $first
    skip: $skip
    orderBy: timestamp
    orderDirection: asc
  ) {
    timestamp
    round { id }
    transaction { id }
    amount
    newDelegator { id }
    oldDelegator { id }
  }
}
`

const transferBondEventsOldQuery = `
query TransferBondEvents($first: Int!, $skip: Int!, $delegator: String!, $timestamp_gt: Int!, $timestamp_lt: Int!) {
  transferBondEvents(
    where: { oldDelegator: $delegator, timestamp_gt: $timestamp_gt, timestamp_lt: $timestamp_lt }
    first: $first
    skip: $skip
    orderBy: timestamp
    orderDirection: asc
  ) {
    timestamp
    round { id }
    transaction { id }
    amount
    newDelegator { id }
    oldDelegator { id }
  }
}
`

// FetchRounds returns every round whose start timestamp lies inside the
// window, ascending.
func (c *Client) FetchRounds(ctx context.Context, window ledger.Window) ([]ledger.Round, error) {
	variables := map[string]any{
		"startTimestamp_gt": window.StartTimestamp,
		"startTimestamp_lt": window.EndTimestamp,
	}
	return fetchPaged(ctx, c, roundsQuery, variables, func(data json.RawMessage) ([]ledger.Round, error) {
		page := struct {
			Rounds []roundRecord `json:"rounds"`
		}{}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, err
		}
		rounds := make([]ledger.Round, 0, len(page.Rounds))
		for _, r := range page.Rounds {
			rounds = append(rounds, ledger.Round{
				Id:             r.Id,
				StartTimestamp: int64(r.StartTimestamp),
				StartBlock:     uint64(r.StartBlock),
			})
		}
		return rounds, nil
	})
}

// FetchBondEvents returns the delegator's bond events inside the window.
func (c *Client) FetchBondEvents(ctx context.Context, delegator string, window ledger.Window) ([]BondEvent, error) {
	variables := map[string]any{
		"delegator":    strings.ToLower(delegator),
		"timestamp_gt": window.StartTimestamp,
		"timestamp_lt": window.EndTimestamp,
	}
	return fetchPaged(ctx, c, bondEventsQuery, variables, func(data json.RawMessage) ([]BondEvent, error) {
		page := struct {
			BondEvents []bondEventRecord `json:"bondEvents"`
		}{}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, err
		}
		events := make([]BondEvent, 0, len(page.BondEvents))
		for _, e := range page.BondEvents {
			events = append(events, BondEvent{
				Timestamp:        int64(e.Timestamp),
				Round:            e.Round.Id,
				TransactionHash:  e.Transaction.Id,
				AdditionalAmount: e.AdditionalAmount,
				BondedAmount:     e.BondedAmount,
				NewDelegate:      e.NewDelegate.Id,
				OldDelegate:      e.OldDelegate.Id,
			})
		}
		return events, nil
	})
}

// FetchUnbondEvents returns the delegator's unbond events inside the window.
func (c *Client) FetchUnbondEvents(ctx context.Context, delegator string, window ledger.Window) ([]UnbondEvent, error) {
	variables := map[string]any{
		"delegator":    strings.ToLower(delegator),
		"timestamp_gt": window.StartTimestamp,
		"timestamp_lt": window.EndTimestamp,
	}
	return fetchPaged(ctx, c, unbondEventsQuery, variables, func(data json.RawMessage) ([]UnbondEvent, error) {
		page := struct {
			UnbondEvents []unbondEventRecord `json:"unbondEvents"`
		}{}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, err
		}
		events := make([]UnbondEvent, 0, len(page.UnbondEvents))
		for _, e := range page.UnbondEvents {
			events = append(events, UnbondEvent{
				Timestamp:       int64(e.Timestamp),
				Round:           e.Round.Id,
				TransactionHash: e.Transaction.Id,
				Amount:          e.Amount,
				WithdrawRound:   int64(e.WithdrawRound),
				Delegate:        e.Delegate.Id,
			})
		}
		return events, nil
	})
}

// FetchTransferBondEvents returns transfer-bond events where the delegator
// is either the receiving or the sending party. The subgraph filters on one
// side per query, so both sides are paged separately and concatenated.
func (c *Client) FetchTransferBondEvents(ctx context.Context, delegator string, window ledger.Window) ([]TransferBondEvent, error) {
	all := make([]TransferBondEvent, 0)
	for _, query := range []string{transferBondEventsNewQuery, transferBondEventsOldQuery} {
		variables := map[string]any{
			"delegator":    strings.ToLower(delegator),
			"timestamp_gt": window.StartTimestamp,
			"timestamp_lt": window.EndTimestamp,
		}
		events, err := fetchPaged(ctx, c, query, variables, func(data json.RawMessage) ([]TransferBondEvent, error) {
			page := struct {
				TransferBondEvents []transferBondEventRecord `json:"transferBondEvents"`
			}{}
			if err := json.Unmarshal(data, &page); err != nil {
				return nil, err
			}
			out := make([]TransferBondEvent, 0, len(page.TransferBondEvents))
			for _, e := range page.TransferBondEvents {
				out = append(out, TransferBondEvent{
					Timestamp:       int64(e.Timestamp),
					Round:           e.Round.Id,
					TransactionHash: e.Transaction.Id,
					Amount:          e.Amount,
					NewDelegator:    e.NewDelegator.Id,
					OldDelegator:    e.OldDelegator.Id,
				})
			}
			return out, nil
		})
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}
