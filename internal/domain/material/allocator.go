package material

import (
	"sort"

	"github.com/google/uuid"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RollAllocation records how much was taken from one roll. The record is
// attached to the consuming entity (a production batch input) so the exact
// consumption can be reversed later.
type RollAllocation struct {
	RollID          uuid.UUID       `json:"roll_id"`
	BatchCode       string          `json:"batch_code"`
	QuantityTaken   decimal.Decimal `json:"quantity_taken"`
	RemainingInRoll decimal.Decimal `json:"remaining_in_roll"`
	FullyConsumed   bool            `json:"fully_consumed"`
}

// ConsumptionPlan is the result of planning a consumption of raw material.
// Planning does not mutate any roll; the plan is applied separately so the
// whole operation stays all-or-nothing.
type ConsumptionPlan struct {
	Allocations    []RollAllocation
	TotalAllocated decimal.Decimal
}

// PlanConsumption selects rolls to satisfy the requested quantity.
//
// With a pinned roll, consumption comes only from that roll and fails with
// INSUFFICIENT_ROLL_QUANTITY when its remaining amount is short. Without one,
// rolls are consumed greedily oldest-first (creation time, then sequence);
// if the pool cannot cover the request the plan fails with
// INSUFFICIENT_MATERIAL_STOCK and nothing is allocated.
func PlanConsumption(requested decimal.Decimal, rolls []MaterialRoll, pinnedRollID *uuid.UUID) (*ConsumptionPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	if pinnedRollID != nil {
		return planPinned(requested, rolls, *pinnedRollID)
	}

	available := make([]MaterialRoll, 0, len(rolls))
	totalAvailable := decimal.Zero
	for _, roll := range rolls {
		if roll.IsAvailable() {
			available = append(available, roll)
			totalAvailable = totalAvailable.Add(roll.RemainingQuantity())
		}
	}

	if totalAvailable.LessThan(requested) {
		return nil, shared.NewDomainErrorf(shared.CodeInsufficientMaterialStock,
			"Requested %s kg but only %s kg in stock", requested, totalAvailable)
	}

	sort.Slice(available, func(i, j int) bool {
		if !available[i].CreatedAt.Equal(available[j].CreatedAt) {
			return available[i].CreatedAt.Before(available[j].CreatedAt)
		}
		return available[i].Sequence < available[j].Sequence
	})

	allocations := make([]RollAllocation, 0)
	remaining := requested
	for _, roll := range available {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, roll.RemainingQuantity())
		remainingInRoll := roll.RemainingQuantity().Sub(take)
		allocations = append(allocations, RollAllocation{
			RollID:          roll.ID,
			BatchCode:       roll.BatchCode,
			QuantityTaken:   take,
			RemainingInRoll: remainingInRoll,
			FullyConsumed:   remainingInRoll.IsZero(),
		})
		remaining = remaining.Sub(take)
	}

	return &ConsumptionPlan{
		Allocations:    allocations,
		TotalAllocated: requested,
	}, nil
}

// planPinned consumes exclusively from the pinned roll
func planPinned(requested decimal.Decimal, rolls []MaterialRoll, rollID uuid.UUID) (*ConsumptionPlan, error) {
	for _, roll := range rolls {
		if roll.ID != rollID {
			continue
		}
		if !roll.IsAvailable() {
			return nil, shared.NewDomainErrorf(shared.CodeInsufficientRollQuantity,
				"Roll %s is not available for allocation", roll.BatchCode)
		}
		if roll.RemainingQuantity().LessThan(requested) {
			return nil, shared.NewDomainErrorf(shared.CodeInsufficientRollQuantity,
				"Roll %s has %s kg remaining, requested %s kg",
				roll.BatchCode, roll.RemainingQuantity(), requested)
		}
		remainingInRoll := roll.RemainingQuantity().Sub(requested)
		return &ConsumptionPlan{
			Allocations: []RollAllocation{{
				RollID:          roll.ID,
				BatchCode:       roll.BatchCode,
				QuantityTaken:   requested,
				RemainingInRoll: remainingInRoll,
				FullyConsumed:   remainingInRoll.IsZero(),
			}},
			TotalAllocated: requested,
		}, nil
	}
	return nil, shared.ErrNotFound
}

// ApplyConsumptionPlan executes a plan against the actual roll entities
func ApplyConsumptionPlan(rolls []*MaterialRoll, plan *ConsumptionPlan) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_PLAN", "Consumption plan cannot be nil")
	}

	rollMap := make(map[uuid.UUID]*MaterialRoll, len(rolls))
	for _, roll := range rolls {
		rollMap[roll.ID] = roll
	}

	for _, alloc := range plan.Allocations {
		roll, exists := rollMap[alloc.RollID]
		if !exists {
			return shared.NewDomainError("ROLL_NOT_FOUND", "Roll not found: "+alloc.RollID.String())
		}
		if err := roll.Consume(alloc.QuantityTaken); err != nil {
			return err
		}
	}
	return nil
}

// TotalAvailable sums the remaining quantity across available rolls
func TotalAvailable(rolls []MaterialRoll) decimal.Decimal {
	total := decimal.Zero
	for _, roll := range rolls {
		if roll.IsAvailable() {
			total = total.Add(roll.RemainingQuantity())
		}
	}
	return total
}
