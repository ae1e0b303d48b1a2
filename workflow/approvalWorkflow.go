package workflow

import (
	"context"

	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

// DocumentRef addresses one approvable document by its concrete table.
type DocumentRef struct {
	Type models.DocumentType `json:"type" validate:"required"`
	ID   string              `json:"id" validate:"required"`
}

// TransitionOutcome says where a document landed after a workflow call.
type TransitionOutcome string

const (
	OutcomeSubmitted TransitionOutcome = "SUBMITTED"
	OutcomeApproved  TransitionOutcome = "APPROVED"
	OutcomeEscalated TransitionOutcome = "ESCALATED"
	OutcomeRejected  TransitionOutcome = "REJECTED"
)

type BatchFailure struct {
	DocumentID     string `json:"document_id"`
	DocumentNumber string `json:"document_number"`
	Reason         string `json:"reason"`
}

// BatchResult reports a batch workflow call, listing the ids that landed in
// each outcome. A failure on one document never blocks the rest of the batch.
type BatchResult struct {
	Submitted []string       `json:"submitted"`
	Approved  []string       `json:"approved"`
	Escalated []string       `json:"escalated"`
	Rejected  []string       `json:"rejected"`
	Failed    []BatchFailure `json:"failed"`
}

func loadApprovable(ctx context.Context, tx *gorm.DB, ref DocumentRef) (models.FinancialDocument, error) {
	switch ref.Type {
	case models.DocumentTypeBill:
		return models.GetBill(ctx, tx, ref.ID)
	case models.DocumentTypeDisbursementVoucher:
		return models.GetDisbursementVoucher(ctx, tx, ref.ID)
	default:
		return nil, utils.NewPolicyError(ref.ID, "document type does not run the approval workflow")
	}
}

func updateApprovable(ctx context.Context, tx *gorm.DB, ref DocumentRef, updates map[string]interface{}) error {
	switch ref.Type {
	case models.DocumentTypeBill:
		return tx.WithContext(ctx).Model(&models.Bill{}).Where("id = ?", ref.ID).Updates(updates).Error
	case models.DocumentTypeDisbursementVoucher:
		return tx.WithContext(ctx).Model(&models.DisbursementVoucher{}).Where("id = ?", ref.ID).Updates(updates).Error
	default:
		return utils.NewPolicyError(ref.ID, "document type does not run the approval workflow")
	}
}

// requiredApprover resolves who must act on the document in its current
// pending state. At level 1 that is the initiator's manager; at level 2 it is
// the manager of whoever approved level 1.
func requiredApprover(ctx context.Context, tx *gorm.DB, doc models.FinancialDocument) (*models.Employee, error) {
	docName := doc.GetDocumentNumber()
	switch doc.GetStatus() {
	case models.StatusPendingL1:
		initiator, err := models.GetEmployeeByUserID(ctx, tx, doc.GetInitiatorUserID())
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				return nil, utils.NewPolicyError(docName, "initiator has no employee profile")
			}
			return nil, err
		}
		manager, err := models.GetManagerOf(ctx, tx, initiator)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				return nil, utils.NewPolicyError(docName, "initiator has no manager assigned")
			}
			return nil, err
		}
		return manager, nil
	case models.StatusPendingL2:
		l1ID := doc.GetApprovedByLevel1ID()
		if l1ID == nil {
			return nil, utils.NewConsistencyError(docName, "pending level 2 without a level 1 approver on record")
		}
		l1, err := models.GetEmployee(ctx, tx, *l1ID)
		if err != nil {
			return nil, err
		}
		manager, err := models.GetManagerOf(ctx, tx, l1)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				return nil, utils.NewConsistencyError(docName, "level 1 approver has no manager for level 2")
			}
			return nil, err
		}
		return manager, nil
	default:
		return nil, utils.NewPolicyError(docName, "document is not pending approval")
	}
}

func actingEmployee(ctx context.Context, tx *gorm.DB, docName string) (*models.Employee, error) {
	userID, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewAuthorizationError(docName, "no acting user in context")
	}
	actor, err := models.GetEmployeeByUserID(ctx, tx, userID)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NewAuthorizationError(docName, "acting user has no employee profile")
		}
		return nil, err
	}
	return actor, nil
}

// SubmitDocument moves a Draft (or previously Rejected) document into
// PENDING_L1. Only the initiator may submit, and the submission is refused
// up front when no manager exists to approve it.
func SubmitDocument(ctx context.Context, ref DocumentRef) (TransitionOutcome, error) {
	db := config.GetDB()
	var outcome TransitionOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := loadApprovable(ctx, tx, ref)
		if err != nil {
			return err
		}
		docName := doc.GetDocumentNumber()
		if doc.GetStatus() != models.StatusDraft && doc.GetStatus() != models.StatusRejected {
			return utils.NewPolicyError(docName, "only draft or rejected documents can be submitted")
		}
		userID, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userID != doc.GetInitiatorUserID() {
			return utils.NewAuthorizationError(docName, "only the initiator may submit")
		}
		initiator, err := models.GetEmployeeByUserID(ctx, tx, userID)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				return utils.NewPolicyError(docName, "initiator has no employee profile")
			}
			return err
		}
		if initiator.ManagerID == nil {
			return utils.NewPolicyError(docName, "initiator has no manager assigned")
		}
		outcome = OutcomeSubmitted
		return updateApprovable(ctx, tx, ref, map[string]interface{}{
			"status":                models.StatusPendingL1,
			"approved_by_level1_id": nil,
			"approved_by_final_id":  nil,
			"updated_by_id":         userID,
		})
	})
	return outcome, err
}

// ApproveDocument advances a pending document one step. At level 1 a manager
// whose limit covers the amount (or who can ultimately approve) finishes the
// document; otherwise it escalates to the manager's own manager. At level 2
// the resolved approver must have authority, there is nowhere left to
// escalate.
func ApproveDocument(ctx context.Context, ref DocumentRef) (TransitionOutcome, error) {
	db := config.GetDB()
	var outcome TransitionOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, ref.ID)
		if err != nil {
			return err
		}
		defer release()

		doc, err := loadApprovable(ctx, tx, ref)
		if err != nil {
			return err
		}
		docName := doc.GetDocumentNumber()
		if !doc.GetStatus().IsPendingApproval() {
			return utils.NewPolicyError(docName, "document is not pending approval")
		}
		actor, err := actingEmployee(ctx, tx, docName)
		if err != nil {
			return err
		}
		required, err := requiredApprover(ctx, tx, doc)
		if err != nil {
			return err
		}
		if actor.ID != required.ID {
			return utils.NewAuthorizationError(docName, "actor is not the approver for this step")
		}

		amount := doc.GetAmount()
		hasAuthority := actor.CanUltimatelyApprove || !amount.GreaterThan(actor.ApprovalLimit)
		userID, _ := utils.GetUserIdFromContext(ctx)

		switch doc.GetStatus() {
		case models.StatusPendingL1:
			if hasAuthority {
				outcome = OutcomeApproved
				if err := updateApprovable(ctx, tx, ref, map[string]interface{}{
					"status":                models.StatusApproved,
					"approved_by_level1_id": actor.ID,
					"approved_by_final_id":  actor.ID,
					"updated_by_id":         userID,
				}); err != nil {
					return err
				}
				return onApproved(ctx, tx, ref)
			}
			// Amount exceeds the approver's limit: escalate to their manager.
			if actor.ManagerID == nil {
				return utils.NewLimitExceededError(docName,
					"amount exceeds the approver's limit and no higher manager exists")
			}
			outcome = OutcomeEscalated
			return updateApprovable(ctx, tx, ref, map[string]interface{}{
				"status":                models.StatusPendingL2,
				"approved_by_level1_id": actor.ID,
				"updated_by_id":         userID,
			})
		case models.StatusPendingL2:
			if !hasAuthority {
				return utils.NewLimitExceededError(docName,
					"amount exceeds the final approver's limit")
			}
			outcome = OutcomeApproved
			if err := updateApprovable(ctx, tx, ref, map[string]interface{}{
				"status":               models.StatusApproved,
				"approved_by_final_id": actor.ID,
				"updated_by_id":        userID,
			}); err != nil {
				return err
			}
			return onApproved(ctx, tx, ref)
		default:
			return utils.NewPolicyError(docName, "document is not pending approval")
		}
	})
	return outcome, err
}

// RejectDocument returns a pending document to REJECTED. Only the approver
// for the current step may reject; the approval trail is cleared so a
// resubmission starts fresh.
func RejectDocument(ctx context.Context, ref DocumentRef) (TransitionOutcome, error) {
	db := config.GetDB()
	var outcome TransitionOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, ref.ID)
		if err != nil {
			return err
		}
		defer release()

		doc, err := loadApprovable(ctx, tx, ref)
		if err != nil {
			return err
		}
		docName := doc.GetDocumentNumber()
		if !doc.GetStatus().IsPendingApproval() {
			return utils.NewPolicyError(docName, "document is not pending approval")
		}
		actor, err := actingEmployee(ctx, tx, docName)
		if err != nil {
			return err
		}
		required, err := requiredApprover(ctx, tx, doc)
		if err != nil {
			return err
		}
		if actor.ID != required.ID {
			return utils.NewAuthorizationError(docName, "actor is not the approver for this step")
		}
		userID, _ := utils.GetUserIdFromContext(ctx)
		outcome = OutcomeRejected
		return updateApprovable(ctx, tx, ref, map[string]interface{}{
			"status":                models.StatusRejected,
			"approved_by_level1_id": nil,
			"approved_by_final_id":  nil,
			"updated_by_id":         userID,
		})
	})
	return outcome, err
}

// onApproved runs side effects of the APPROVED transition inside the same
// transaction. A stock receipt failure is logged and does not block the
// approval; the resulting stock gap is left to a manual adjustment.
func onApproved(ctx context.Context, tx *gorm.DB, ref DocumentRef) error {
	if ref.Type != models.DocumentTypeBill {
		return nil
	}
	if err := applyBillReceiptStock(ctx, tx, ref.ID); err != nil {
		config.LogError(config.GetLogger(), "workflow", "ApproveDocument", "stock receipt adjustment", ref, err)
	}
	return nil
}

// SubmitDocuments runs SubmitDocument over a batch, collecting per-document
// failures instead of aborting.
func SubmitDocuments(ctx context.Context, refs []DocumentRef) *BatchResult {
	result := &BatchResult{}
	for _, ref := range refs {
		outcome, err := SubmitDocument(ctx, ref)
		recordOutcome(ctx, result, ref, outcome, err, "SubmitDocuments")
	}
	return result
}

func ApproveDocuments(ctx context.Context, refs []DocumentRef) *BatchResult {
	result := &BatchResult{}
	for _, ref := range refs {
		outcome, err := ApproveDocument(ctx, ref)
		recordOutcome(ctx, result, ref, outcome, err, "ApproveDocuments")
	}
	return result
}

func RejectDocuments(ctx context.Context, refs []DocumentRef) *BatchResult {
	result := &BatchResult{}
	for _, ref := range refs {
		outcome, err := RejectDocument(ctx, ref)
		recordOutcome(ctx, result, ref, outcome, err, "RejectDocuments")
	}
	return result
}

func recordOutcome(ctx context.Context, result *BatchResult, ref DocumentRef, outcome TransitionOutcome, err error, funcName string) {
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", funcName, "document transition", ref, err)
		number := ref.ID
		if doc, loadErr := loadApprovable(ctx, config.GetDB(), ref); loadErr == nil {
			number = doc.GetDocumentNumber()
		}
		result.Failed = append(result.Failed, BatchFailure{
			DocumentID:     ref.ID,
			DocumentNumber: number,
			Reason:         err.Error(),
		})
		return
	}
	switch outcome {
	case OutcomeSubmitted:
		result.Submitted = append(result.Submitted, ref.ID)
	case OutcomeApproved:
		result.Approved = append(result.Approved, ref.ID)
	case OutcomeEscalated:
		result.Escalated = append(result.Escalated, ref.ID)
	case OutcomeRejected:
		result.Rejected = append(result.Rejected, ref.ID)
	}
}
