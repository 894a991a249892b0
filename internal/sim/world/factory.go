package world

import (
	"math/big"
	"strconv"

	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/kernel/model"
	"galax.network/internal/sim/world/logic/ids"
)

// CreateTerritory registers a new territory owned by the sender. The sender
// must attach at least declared value plus the creation cost; the cost goes
// to the world fee pool and the rest seeds the treasury.
func (e *Engine) CreateTerritory(st *State, tx Tx, height uint64) (Result, []Event, error) {
	paid := orZero(tx.Value)
	need := new(big.Int).Add(orZero(tx.DeclaredValue), e.cfg.TerritoryCreationCost)
	if paid.Cmp(need) < 0 {
		return Result{}, nil, ErrInsufficientValue.With("paid value below declared value plus creation cost",
			"paid", paid.String(), "need", need.String())
	}

	id := st.NextTerritoryID()
	addr := ids.DeriveAddress(e.cfg.DomainAddress, tx.Sender, tx.Salt, id)
	if _, taken := st.TerritoryByAddress(addr); taken || addr == e.cfg.DomainAddress {
		return Result{}, nil, ErrBadRequest.With("derived territory address already in use", "address", addr.Hex())
	}

	btx := st.Balances.Begin()
	if err := btx.Credit(e.cfg.DomainAddress, balances.NativeID, e.cfg.TerritoryCreationCost); err != nil {
		btx.Discard()
		return Result{}, nil, err
	}
	if err := btx.Credit(addr, balances.NativeID, new(big.Int).Sub(paid, e.cfg.TerritoryCreationCost)); err != nil {
		btx.Discard()
		return Result{}, nil, err
	}
	btx.Commit()

	t := &model.Territory{
		ID:            id,
		Address:       addr,
		Owner:         tx.Sender,
		Name:          tx.Name,
		MetadataURI:   tx.MetadataURI,
		Salt:          tx.Salt,
		DeclaredValue: new(big.Int).Set(orZero(tx.DeclaredValue)),
		CreatedBlock:  height,
		Members:       map[model.Address]bool{},
	}
	st.addTerritory(t)

	ev := Event{Type: EventTerritoryCreated, Height: height, TxID: tx.ID, TerritoryID: id, Address: addr, Owner: tx.Sender, Name: tx.Name}
	return Result{TerritoryID: id, TerritoryAddress: addr}, []Event{ev}, nil
}

// PredictTerritoryAddress returns the address the next CreateTerritory from
// creator with salt would assign.
func (e *Engine) PredictTerritoryAddress(st *State, creator model.Address, salt [32]byte) model.Address {
	return ids.DeriveAddress(e.cfg.DomainAddress, creator, salt, st.NextTerritoryID())
}

// planBusiness runs the world-level business checks for a calling address.
func (e *Engine) planBusiness(st *State, caller model.Address, name string, typ uint32, owner model.Address, paid *big.Int, height uint64) (*model.Territory, *model.Business, error) {
	tid, ok := st.TerritoryByAddress(caller)
	if !ok {
		return nil, nil, ErrNotATerritory.With("caller is not a registered territory", "caller", caller.Hex())
	}
	if paid.Cmp(e.cfg.BusinessCreationCost) < 0 {
		return nil, nil, ErrInsufficientPayment.With("payment below business creation cost",
			"paid", paid.String(), "cost", e.cfg.BusinessCreationCost.String())
	}
	if !e.cfg.isBusinessType(typ) {
		return nil, nil, ErrInvalidBusinessType.With("unknown business type", "type", strconv.FormatUint(uint64(typ), 10))
	}
	t := st.Territory(tid)
	if owner.IsZero() {
		owner = t.Owner
	}
	bid := uint64(len(t.Businesses)) + 1
	b := &model.Business{
		ID:           bid,
		TerritoryID:  tid,
		Address:      ids.BusinessAddress(e.cfg.DomainAddress, t.Address, tid, bid),
		Name:         name,
		Type:         typ,
		Owner:        owner,
		CreatedBlock: height,
	}
	return t, b, nil
}

// CreateBusiness is the world-level factory; caller must be a territory.
func (e *Engine) CreateBusiness(st *State, caller model.Address, name string, typ uint32, owner model.Address, paid *big.Int, height uint64, txID string) (Result, []Event, error) {
	paid = orZero(paid)
	t, b, err := e.planBusiness(st, caller, name, typ, owner, paid, height)
	if err != nil {
		return Result{}, nil, err
	}
	btx := st.Balances.Begin()
	if err := btx.Credit(e.cfg.DomainAddress, balances.NativeID, paid); err != nil {
		btx.Discard()
		return Result{}, nil, err
	}
	btx.Commit()
	return e.appendBusiness(t, b, txID)
}

// TerritoryCreateBusiness lets a territory owner create a business, paying
// either with attached value or from the territory treasury.
func (e *Engine) TerritoryCreateBusiness(st *State, tx Tx, height uint64) (Result, []Event, error) {
	t := st.Territory(tx.Territory)
	if t == nil {
		return Result{}, nil, unknownTerritory(tx.Territory)
	}
	if tx.Sender != t.Owner {
		return Result{}, nil, ErrNotOwner.With("only the territory owner may create businesses", "sender", tx.Sender.Hex())
	}

	paid := orZero(tx.Value)
	if tx.FromTreasury {
		if paid.Sign() != 0 {
			return Result{}, nil, ErrBadRequest.With("attached value must be zero when paying from treasury")
		}
		paid = new(big.Int).Set(e.cfg.BusinessCreationCost)
		if have := st.Balances.BalanceOf(t.Address, balances.NativeID); have.Cmp(paid) < 0 {
			return Result{}, nil, ErrInsufficientTreasury.With("treasury below business creation cost",
				"treasury", have.String(), "cost", paid.String())
		}
	}

	_, b, err := e.planBusiness(st, t.Address, tx.Name, tx.BusinessType, tx.Owner, paid, height)
	if err != nil {
		return Result{}, nil, err
	}

	btx := st.Balances.Begin()
	if tx.FromTreasury {
		err = btx.Transfer(t.Address, e.cfg.DomainAddress, balances.NativeID, paid)
	} else {
		err = btx.Credit(e.cfg.DomainAddress, balances.NativeID, paid)
	}
	if err != nil {
		btx.Discard()
		return Result{}, nil, err
	}
	btx.Commit()
	return e.appendBusiness(t, b, tx.ID)
}

func (e *Engine) appendBusiness(t *model.Territory, b *model.Business, txID string) (Result, []Event, error) {
	t.Businesses = append(t.Businesses, b)
	ev := Event{
		Type:         EventBusinessCreated,
		Height:       b.CreatedBlock,
		TxID:         txID,
		TerritoryID:  t.ID,
		BusinessID:   b.ID,
		BusinessType: b.Type,
		Address:      b.Address,
		Owner:        b.Owner,
		Name:         b.Name,
	}
	return Result{TerritoryID: t.ID, BusinessID: b.ID, BusinessAddress: b.Address}, []Event{ev}, nil
}

// Fund credits external value to a territory treasury.
func (e *Engine) Fund(st *State, tx Tx, height uint64) (Result, []Event, error) {
	t := st.Territory(tx.Territory)
	if t == nil {
		return Result{}, nil, unknownTerritory(tx.Territory)
	}
	value := orZero(tx.Value)
	if value.Sign() <= 0 {
		return Result{}, nil, ErrBadRequest.With("funding value must be positive")
	}
	btx := st.Balances.Begin()
	if err := btx.Credit(t.Address, balances.NativeID, value); err != nil {
		btx.Discard()
		return Result{}, nil, err
	}
	btx.Commit()
	ev := Event{Type: EventTreasuryFunded, Height: height, TxID: tx.ID, TerritoryID: t.ID, Owner: tx.Sender, Amount: new(big.Int).Set(value)}
	return Result{TerritoryID: t.ID}, []Event{ev}, nil
}

func unknownTerritory(id uint64) *Error {
	return ErrUnknownTerritory.With("no such territory", "territory", strconv.FormatUint(id, 10))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
