package indexdb

import (
	"context"
	"database/sql"
	"errors"
)

type BlockRow struct {
	Height   uint64  `json:"height"`
	Digest   string  `json:"digest"`
	TxCount  int     `json:"tx_count"`
	Accepted int     `json:"accepted"`
	Rejected int     `json:"rejected"`
	Txs      []TxRow `json:"txs"`
}

type TxRow struct {
	Index  int    `json:"index"`
	TxID   string `json:"tx_id"`
	Kind   string `json:"kind"`
	Sender string `json:"sender"`
	Code   string `json:"code,omitempty"`
}

type ProductionRow struct {
	Height      uint64 `json:"height"`
	TerritoryID uint64 `json:"territory_id"`
	Participant string `json:"participant"`
	ResourceID  uint64 `json:"resource_id"`
	Amount      string `json:"amount"`
	Reward      string `json:"reward"`
}

type MemberRow struct {
	Participant string `json:"participant"`
	SinceBlock  uint64 `json:"since_block"`
}

var ErrNotFound = errors.New("not found")

// Block returns an indexed block with its transactions.
func (s *SQLiteIndex) Block(ctx context.Context, height uint64) (BlockRow, error) {
	var b BlockRow
	err := s.rdb.QueryRowContext(ctx,
		`SELECT height,digest,tx_count,accepted,rejected FROM blocks WHERE height=?`, int64(height)).
		Scan(&b.Height, &b.Digest, &b.TxCount, &b.Accepted, &b.Rejected)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	rows, err := s.rdb.QueryContext(ctx,
		`SELECT idx,tx_id,kind,sender,code FROM txs WHERE height=? ORDER BY idx`, int64(height))
	if err != nil {
		return b, err
	}
	defer rows.Close()
	b.Txs = []TxRow{}
	for rows.Next() {
		var t TxRow
		if err := rows.Scan(&t.Index, &t.TxID, &t.Kind, &t.Sender, &t.Code); err != nil {
			return b, err
		}
		b.Txs = append(b.Txs, t)
	}
	return b, rows.Err()
}

// Productions lists a participant's most recent productions, newest first.
func (s *SQLiteIndex) Productions(ctx context.Context, participant string, limit int) ([]ProductionRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.rdb.QueryContext(ctx,
		`SELECT height,territory_id,participant,resource_id,amount,reward FROM productions
		WHERE participant=? ORDER BY height DESC, seq DESC LIMIT ?`, participant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductionRow{}
	for rows.Next() {
		var p ProductionRow
		if err := rows.Scan(&p.Height, &p.TerritoryID, &p.Participant, &p.ResourceID, &p.Amount, &p.Reward); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Members lists the current members of a territory ordered by address.
func (s *SQLiteIndex) Members(ctx context.Context, territoryID uint64) ([]MemberRow, error) {
	rows, err := s.rdb.QueryContext(ctx,
		`SELECT participant,since_block FROM memberships WHERE territory_id=? ORDER BY participant`, int64(territoryID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MemberRow{}
	for rows.Next() {
		var m MemberRow
		if err := rows.Scan(&m.Participant, &m.SinceBlock); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
