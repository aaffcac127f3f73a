package services

import (
	"errors"

	"github.com/projectflow/backend/pkg/response"
	"gorm.io/gorm"
)

// notFoundOr maps gorm's missing-row error to a NotFound AppError.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound(msg)
	}
	return err
}

var (
	errSuperuserAssignee = response.NewForbidden("superusers cannot be assigned to issues")
	errNotProposal       = response.NewConflict("issue is not in PROPOSED status")
	errNoPendingRequest  = response.NewConflict("no pending assignment request for this issue")
	errLastLeadRemove    = response.NewConflict("cannot remove the last Project Lead; assign a new lead first")
	errLastLeadDemote    = response.NewConflict("cannot demote the last Project Lead; assign a new lead first")
)
