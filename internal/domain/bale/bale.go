package bale

import (
	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchStatus is the state of a bale batch
type BatchStatus string

const (
	// BatchStatusActive means the batch holds live inventory
	BatchStatusActive BatchStatus = "ACTIVE"
	// BatchStatusDeleted means the batch was soft-deleted
	BatchStatusDeleted BatchStatus = "DELETED"
)

// ItemStatus is the state of a single bale item
type ItemStatus string

const (
	// ItemStatusAvailable means the bale can still be sold
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	// ItemStatusIssued means a sales invoice consumed the bale
	ItemStatusIssued ItemStatus = "ISSUED"
	// ItemStatusDeleted means the bale was soft-deleted and its net weight restored
	ItemStatusDeleted ItemStatus = "DELETED"
)

// gramsPerKilogram converts recorded weight loss (grams) into kilograms
var gramsPerKilogram = decimal.NewFromInt(1000)

// BaleItem is one sellable bundle of finished-goods pieces. Net weight is the
// quantity debited from finished-product stock when the item is created, and
// credited back when it is deleted while still Available.
type BaleItem struct {
	shared.BaseEntity
	BaleBatchID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_bale_item_batch"`
	Code            string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	GrossWeight     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	WeightLossGrams decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetWeight       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PieceCount      int             `gorm:"not null"`
	Status          ItemStatus      `gorm:"type:varchar(15);not null;index"`
	IssueReference  string          `gorm:"type:varchar(50)"`
}

// BaleBatch groups bale items created in one submission
type BaleBatch struct {
	shared.BaseEntity
	Code        string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	Status      BatchStatus     `gorm:"type:varchar(15);not null;index"`
	TotalWeight decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Items       []BaleItem      `gorm:"foreignKey:BaleBatchID;constraint:OnDelete:CASCADE"`
}

// NetWeightOf computes net weight from gross weight and weight loss in grams
func NetWeightOf(grossWeight, weightLossGrams decimal.Decimal) decimal.Decimal {
	return grossWeight.Sub(weightLossGrams.Div(gramsPerKilogram)).Round(4)
}

// NewBaleItem creates an Available bale item. Net weight must be strictly
// positive; a bale that weighs nothing after loss is a data-entry error.
func NewBaleItem(batchID uuid.UUID, code string, productID uuid.UUID, grossWeight, weightLossGrams decimal.Decimal, pieceCount int) (*BaleItem, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Bale item code is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	if grossWeight.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Gross weight must be positive")
	}
	if weightLossGrams.LessThan(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Weight loss cannot be negative")
	}
	if pieceCount <= 0 {
		return nil, shared.NewDomainError("INVALID_PIECE_COUNT", "Piece count must be positive")
	}
	netWeight := NetWeightOf(grossWeight, weightLossGrams)
	if netWeight.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainErrorf("INVALID_NET_WEIGHT",
			"Bale %s net weight %s kg must be positive", code, netWeight)
	}
	return &BaleItem{
		BaseEntity:      shared.NewBaseEntity(),
		BaleBatchID:     batchID,
		Code:            code,
		ProductID:       productID,
		GrossWeight:     grossWeight,
		WeightLossGrams: weightLossGrams,
		NetWeight:       netWeight,
		PieceCount:      pieceCount,
		Status:          ItemStatusAvailable,
	}, nil
}

// NewBaleBatch creates an empty Active bale batch
func NewBaleBatch(code string) (*BaleBatch, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Bale batch code is required")
	}
	return &BaleBatch{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		Status:      BatchStatusActive,
		TotalWeight: decimal.Zero,
	}, nil
}

// AddItem attaches an item and accumulates the batch total weight
func (b *BaleBatch) AddItem(item *BaleItem) {
	item.BaleBatchID = b.ID
	b.Items = append(b.Items, *item)
	b.TotalWeight = b.TotalWeight.Add(item.NetWeight)
	b.Touch()
}

// Issue marks the item consumed by a sales invoice
func (i *BaleItem) Issue(reference string) error {
	if i.Status != ItemStatusAvailable {
		return shared.NewDomainErrorf("INVALID_STATE",
			"Bale %s is %s, only available bales can be issued", i.Code, i.Status)
	}
	i.Status = ItemStatusIssued
	i.IssueReference = reference
	i.Touch()
	return nil
}

// MarkDeleted soft-deletes the item
func (i *BaleItem) MarkDeleted() error {
	if i.Status == ItemStatusDeleted {
		return shared.ErrInvalidState
	}
	i.Status = ItemStatusDeleted
	i.Touch()
	return nil
}

// Update edits piece count and weights while the item is still Available.
// The original stock debit is trusted; no re-validation against current
// stock happens here.
func (i *BaleItem) Update(pieceCount int, grossWeight, weightLossGrams decimal.Decimal) error {
	if i.Status != ItemStatusAvailable {
		return shared.NewDomainErrorf("INVALID_STATE",
			"Bale %s is %s, only available bales can be edited", i.Code, i.Status)
	}
	if pieceCount <= 0 {
		return shared.NewDomainError("INVALID_PIECE_COUNT", "Piece count must be positive")
	}
	if grossWeight.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Gross weight must be positive")
	}
	if weightLossGrams.LessThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Weight loss cannot be negative")
	}
	netWeight := NetWeightOf(grossWeight, weightLossGrams)
	if netWeight.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainErrorf("INVALID_NET_WEIGHT",
			"Bale %s net weight %s kg must be positive", i.Code, netWeight)
	}
	i.PieceCount = pieceCount
	i.GrossWeight = grossWeight
	i.WeightLossGrams = weightLossGrams
	i.NetWeight = netWeight
	i.Touch()
	return nil
}

// AvailableItems returns the items still in Available status
func (b *BaleBatch) AvailableItems() []*BaleItem {
	items := make([]*BaleItem, 0, len(b.Items))
	for idx := range b.Items {
		if b.Items[idx].Status == ItemStatusAvailable {
			items = append(items, &b.Items[idx])
		}
	}
	return items
}

// DeleteItem soft-deletes one Available item and returns the product and net
// weight to restore. The batch total weight tracks live items only.
func (b *BaleBatch) DeleteItem(itemID uuid.UUID) (uuid.UUID, decimal.Decimal, error) {
	if b.Status == BatchStatusDeleted {
		return uuid.Nil, decimal.Zero, shared.ErrInvalidState
	}
	for idx := range b.Items {
		item := &b.Items[idx]
		if item.ID != itemID {
			continue
		}
		if item.Status != ItemStatusAvailable {
			return uuid.Nil, decimal.Zero, shared.NewDomainErrorf("INVALID_STATE",
				"Bale %s is %s, only available bales can be deleted", item.Code, item.Status)
		}
		if err := item.MarkDeleted(); err != nil {
			return uuid.Nil, decimal.Zero, err
		}
		b.TotalWeight = b.TotalWeight.Sub(item.NetWeight)
		b.Touch()
		return item.ProductID, item.NetWeight, nil
	}
	return uuid.Nil, decimal.Zero, shared.ErrNotFound
}

// MarkDeleted soft-deletes the batch and its Available items, returning the
// net weight to restore per product. Issued items are already consumed by a
// sale and stay untouched; restoring them would corrupt the sales ledger.
func (b *BaleBatch) MarkDeleted() (map[uuid.UUID]decimal.Decimal, error) {
	if b.Status == BatchStatusDeleted {
		return nil, shared.ErrInvalidState
	}
	restore := make(map[uuid.UUID]decimal.Decimal)
	for idx := range b.Items {
		item := &b.Items[idx]
		if item.Status != ItemStatusAvailable {
			continue
		}
		if err := item.MarkDeleted(); err != nil {
			return nil, err
		}
		restore[item.ProductID] = restore[item.ProductID].Add(item.NetWeight)
	}
	b.Status = BatchStatusDeleted
	b.Touch()
	return restore, nil
}
