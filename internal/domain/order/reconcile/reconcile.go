package reconcile

import (
	candidateRepo "backcheck_api/internal/domain/candidate/repository"
	"backcheck_api/internal/domain/order/model"
	orderRepo "backcheck_api/internal/domain/order/repository"
	"backcheck_api/pkg/logger"
	"backcheck_api/pkg/metrics"

	"go.uber.org/zap"
)

// Reconciler re-derives an order's completed status from its candidates'
// result sets. It is the only thing allowed to move an order between
// processing and completed, and the candidate tracker calls it after every
// result mutation.
type Reconciler struct {
	orders     orderRepo.OrderRepository
	candidates candidateRepo.CandidateRepository
}

func New(orders orderRepo.OrderRepository, candidates candidateRepo.CandidateRepository) *Reconciler {
	return &Reconciler{orders: orders, candidates: candidates}
}

// OrderOwner resolves the owning user for access checks on candidates.
func (r *Reconciler) OrderOwner(orderID string) (string, error) {
	order, err := r.orders.GetByID(orderID)
	if err != nil {
		return "", err
	}
	return order.UserID, nil
}

// ReconcileOrderCompletion flips a processing order to completed when every
// candidate is complete, and back to processing when a completed order loses
// a result. Those are the only two transitions it owns: an order that is
// cancelled, unpaid or not yet in processing keeps its status no matter what
// results come in. It is idempotent and never propagates failures to the
// mutation that triggered it.
func (r *Reconciler) ReconcileOrderCompletion(orderID string) {
	order, err := r.orders.GetByID(orderID)
	if err != nil {
		logger.Log.Warn("reconcile skipped, order not loadable",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}

	candidates, err := r.candidates.GetByOrderID(orderID)
	if err != nil {
		logger.Log.Warn("reconcile skipped, candidates not loadable",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}

	allComplete := len(candidates) > 0
	for i := range candidates {
		if !candidates[i].IsComplete() {
			allComplete = false
			break
		}
	}

	switch {
	case allComplete && order.OrderStatus == model.StatusProcessing:
		order.OrderStatus = model.StatusCompleted
		if err := r.orders.Update(order); err != nil {
			logger.Log.Error("failed to mark order completed",
				zap.String("order_id", orderID),
				zap.Error(err))
			return
		}
		metrics.OrdersCompleted.Inc()
		logger.Log.Info("order completed, all candidate results in",
			zap.String("order_id", orderID),
			zap.String("tracking_number", order.TrackingNumber))

	case !allComplete && order.OrderStatus == model.StatusCompleted:
		order.OrderStatus = model.StatusProcessing
		if err := r.orders.Update(order); err != nil {
			logger.Log.Error("failed to revert order to processing",
				zap.String("order_id", orderID),
				zap.Error(err))
			return
		}
		logger.Log.Info("order reverted to processing, result set no longer complete",
			zap.String("order_id", orderID),
			zap.String("tracking_number", order.TrackingNumber))
	}
}
