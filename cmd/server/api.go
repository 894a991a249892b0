package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"galax.network/internal/logging"
	"galax.network/internal/persistence/indexdb"
	"galax.network/internal/sim/world"
	"galax.network/internal/sim/world/kernel/model"
	"galax.network/internal/sim/world/logic/ids"
)

// readIndex is the query side of the sqlite read-model.
type readIndex interface {
	Block(ctx context.Context, height uint64) (indexdb.BlockRow, error)
	Productions(ctx context.Context, participant string, limit int) ([]indexdb.ProductionRow, error)
	Members(ctx context.Context, territoryID uint64) ([]indexdb.MemberRow, error)
}

type api struct {
	world   *world.World
	index   readIndex
	metrics *serverMetrics
	ws      http.Handler
	admin   bool
	log     zerolog.Logger
}

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(a.log))

	r.Get("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if a.ws != nil {
			r.Handle("/ws", a.ws)
		}
		r.Get("/world", a.getWorld)
		r.Get("/participants/{address}", a.getParticipant)
		r.Get("/participants/{address}/productions", a.getProductions)
		r.Get("/territories/predict", a.predictTerritory)
		r.Get("/territories/{id}", a.getTerritory)
		r.Get("/territories/{id}/businesses", a.getBusinesses)
		r.Get("/territories/{id}/members", a.getMembers)
		r.Get("/balances/{holder}/{id}", a.getBalance)
		r.Get("/blocks/{height}", a.getBlock)
	})

	if a.admin {
		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(loopbackOnly)
			r.Get("/state", a.adminState)
			r.Post("/snapshot", a.adminSnapshot)
		})
	}
	return r
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

type participantJSON struct {
	Address   string       `json:"address"`
	Nonce     uint64       `json:"nonce"`
	Territory uint64       `json:"territory_id"`
	Vitality  vitalityJSON `json:"vitality"`
	Skills    []skillJSON  `json:"skills"`
}

type vitalityJSON struct {
	Hunger string `json:"hunger"`
	Thirst string `json:"thirst"`
	Energy string `json:"energy"`
}

type skillJSON struct {
	Kind  uint32 `json:"kind"`
	Level uint32 `json:"level"`
	Exp   string `json:"exp"`
}

type territoryJSON struct {
	ID            uint64   `json:"id"`
	Address       string   `json:"address"`
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	MetadataURI   string   `json:"metadata_uri,omitempty"`
	DeclaredValue string   `json:"declared_value"`
	CreatedBlock  uint64   `json:"created_block"`
	Treasury      string   `json:"treasury"`
	Members       []string `json:"members"`
	Businesses    int      `json:"business_count"`
}

type businessJSON struct {
	ID           uint64 `json:"id"`
	Address      string `json:"address"`
	Name         string `json:"name"`
	Type         uint32 `json:"type"`
	Owner        string `json:"owner"`
	CreatedBlock uint64 `json:"created_block"`
}

func (a *api) getWorld(rw http.ResponseWriter, r *http.Request) {
	v := a.world.View()
	writeJSON(rw, http.StatusOK, map[string]any{
		"world_id":       v.WorldID,
		"height":         v.Height,
		"digest":         v.Digest,
		"domain_address": v.DomainAddress.Hex(),
		"chain_id":       v.ChainID.String(),
		"territories":    v.TerritoryCount(),
	})
}

func (a *api) getParticipant(rw http.ResponseWriter, r *http.Request) {
	addr, err := model.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := a.world.View().Participant(addr)
	if !ok {
		writeError(rw, http.StatusNotFound, "participant not found")
		return
	}
	out := participantJSON{
		Address:   p.Address.Hex(),
		Nonce:     p.Nonce,
		Territory: p.Territory,
		Skills:    []skillJSON{},
	}
	st := p.Vitality.Stats()
	out.Vitality = vitalityJSON{Hunger: st[0].String(), Thirst: st[1].String(), Energy: st[2].String()}
	for _, k := range p.SortedSkillKinds() {
		s := p.Skill(k)
		out.Skills = append(out.Skills, skillJSON{Kind: uint32(k), Level: s.Level, Exp: s.Experience().String()})
	}
	writeJSON(rw, http.StatusOK, out)
}

func (a *api) territory(rw http.ResponseWriter, r *http.Request) (*model.Territory, *world.View, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "bad territory id")
		return nil, nil, false
	}
	v := a.world.View()
	t, ok := v.Territory(id)
	if !ok {
		writeError(rw, http.StatusNotFound, "territory not found")
		return nil, nil, false
	}
	return t, v, true
}

func (a *api) getTerritory(rw http.ResponseWriter, r *http.Request) {
	t, v, ok := a.territory(rw, r)
	if !ok {
		return
	}
	out := territoryJSON{
		ID:            t.ID,
		Address:       t.Address.Hex(),
		Owner:         t.Owner.Hex(),
		Name:          t.Name,
		MetadataURI:   t.MetadataURI,
		DeclaredValue: bigString(t.DeclaredValue),
		CreatedBlock:  t.CreatedBlock,
		Treasury:      v.Treasury(t.ID).String(),
		Members:       []string{},
		Businesses:    len(t.Businesses),
	}
	for _, m := range t.SortedMembers() {
		out.Members = append(out.Members, m.Hex())
	}
	writeJSON(rw, http.StatusOK, out)
}

func (a *api) getBusinesses(rw http.ResponseWriter, r *http.Request) {
	t, _, ok := a.territory(rw, r)
	if !ok {
		return
	}
	out := make([]businessJSON, 0, len(t.Businesses))
	for _, b := range t.Businesses {
		out = append(out, businessJSON{
			ID:           b.ID,
			Address:      b.Address.Hex(),
			Name:         b.Name,
			Type:         b.Type,
			Owner:        b.Owner.Hex(),
			CreatedBlock: b.CreatedBlock,
		})
	}
	writeJSON(rw, http.StatusOK, out)
}

func (a *api) getBalance(rw http.ResponseWriter, r *http.Request) {
	holder, err := model.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "bad balance id")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"holder": holder.Hex(),
		"id":     id,
		"amount": a.world.View().BalanceOf(holder, id).String(),
	})
}

func (a *api) predictTerritory(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creator, err := model.ParseAddress(q.Get("creator"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "creator: "+err.Error())
		return
	}
	salt, err := parseSalt(q.Get("salt"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "salt: "+err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"creator": creator.Hex(),
		"salt":    "0x" + hex.EncodeToString(salt[:]),
		"address": a.world.View().PredictTerritoryAddress(creator, salt).Hex(),
	})
}

func (a *api) getBlock(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		writeError(rw, http.StatusServiceUnavailable, "index disabled")
		return
	}
	h, err := strconv.ParseUint(chi.URLParam(r, "height"), 10, 64)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "bad height")
		return
	}
	b, err := a.index.Block(r.Context(), h)
	if a.indexError(rw, err) {
		return
	}
	writeJSON(rw, http.StatusOK, b)
}

func (a *api) getProductions(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		writeError(rw, http.StatusServiceUnavailable, "index disabled")
		return
	}
	addr, err := model.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := a.index.Productions(r.Context(), addr.Hex(), limit)
	if a.indexError(rw, err) {
		return
	}
	writeJSON(rw, http.StatusOK, rows)
}

func (a *api) getMembers(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		writeError(rw, http.StatusServiceUnavailable, "index disabled")
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "bad territory id")
		return
	}
	rows, err := a.index.Members(r.Context(), id)
	if a.indexError(rw, err) {
		return
	}
	writeJSON(rw, http.StatusOK, rows)
}

func (a *api) indexError(rw http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, indexdb.ErrNotFound):
		writeError(rw, http.StatusNotFound, "not found")
	default:
		a.log.Error().Err(err).Msg("index query")
		writeError(rw, http.StatusInternalServerError, "index query failed")
	}
	return true
}

func (a *api) adminState(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, struct {
		WorldID string             `json:"world_id"`
		Height  uint64             `json:"height"`
		Metrics world.WorldMetrics `json:"metrics"`
	}{
		WorldID: a.world.ID(),
		Height:  a.world.Height(),
		Metrics: a.world.Metrics(),
	})
}

func (a *api) adminSnapshot(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	height, err := a.world.RequestSnapshot(ctx)
	if err != nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "height": height, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "height": height})
}

// parseSalt accepts up to 32 bytes of hex, right-padded with zeros.
func parseSalt(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) > len(out) {
		return out, errors.New("longer than 32 bytes")
	}
	return ids.Salt(b), nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}
