package oplog

import (
	"checksheet-backend/internal/domain/identity"
	"checksheet-backend/internal/domain/record"
)

// ForRecord builds the entry of a lifecycle action on a check record.
func ForRecord(actor identity.Actor, rec *record.CheckRecord, action record.Action, reason string) Entry {
	details := map[string]interface{}{
		"product_id":      rec.ProductID,
		"production_date": rec.ProductionDate,
		"batch_number":    rec.BatchNumber,
		"status":          string(rec.Status),
	}
	if reason != "" {
		details["reject_reason"] = reason
	}
	target := rec.ID
	e := Entry{
		UserID:     actor.ID,
		Action:     actionName(action),
		TargetType: TargetCheckRecord,
		TargetID:   &target,
		Details:    details,
	}
	if actor.IP != "" {
		ip := actor.IP
		e.IPAddress = &ip
	}
	if actor.UserAgent != "" {
		ua := actor.UserAgent
		e.UserAgent = &ua
	}
	return e
}

func actionName(a record.Action) string {
	switch a {
	case record.ActionSubmit:
		return ActionSubmitRecord
	case record.ActionApprove:
		return ActionApproveRecord
	case record.ActionReject:
		return ActionRejectRecord
	}
	return ActionSaveRecord
}
