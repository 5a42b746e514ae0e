package returns

// ReturnStatus represents the lifecycle state of a return request
type ReturnStatus string

const (
	ReturnStatusRequested       ReturnStatus = "REQUESTED"        // Created by the customer
	ReturnStatusPendingApproval ReturnStatus = "PENDING_APPROVAL" // Under review by an admin
	ReturnStatusApproved        ReturnStatus = "APPROVED"         // Approved, waiting for a label
	ReturnStatusLabelSent       ReturnStatus = "LABEL_SENT"       // Inbound label issued to the customer
	ReturnStatusReceived        ReturnStatus = "RECEIVED"         // Package arrived at the warehouse
	ReturnStatusApprovedRefund  ReturnStatus = "APPROVED_REFUND"  // Inspection passed, ready to settle
	ReturnStatusCompleted       ReturnStatus = "COMPLETED"
	ReturnStatusRejected        ReturnStatus = "REJECTED"
	ReturnStatusCancelled       ReturnStatus = "CANCELLED"
)

// AllReturnStatuses lists every status in lifecycle order
var AllReturnStatuses = []ReturnStatus{
	ReturnStatusRequested,
	ReturnStatusPendingApproval,
	ReturnStatusApproved,
	ReturnStatusLabelSent,
	ReturnStatusReceived,
	ReturnStatusApprovedRefund,
	ReturnStatusCompleted,
	ReturnStatusRejected,
	ReturnStatusCancelled,
}

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusRequested, ReturnStatusPendingApproval, ReturnStatusApproved,
		ReturnStatusLabelSent, ReturnStatusReceived, ReturnStatusApprovedRefund,
		ReturnStatusCompleted, ReturnStatusRejected, ReturnStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusCompleted || s == ReturnStatusRejected || s == ReturnStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusRequested:
		switch target {
		case ReturnStatusPendingApproval, ReturnStatusApproved, ReturnStatusRejected,
			ReturnStatusReceived, ReturnStatusCancelled:
			return true
		}
	case ReturnStatusPendingApproval:
		switch target {
		case ReturnStatusApproved, ReturnStatusRejected, ReturnStatusReceived, ReturnStatusCancelled:
			return true
		}
	case ReturnStatusApproved:
		switch target {
		case ReturnStatusLabelSent, ReturnStatusReceived, ReturnStatusCancelled:
			return true
		}
	case ReturnStatusLabelSent:
		return target == ReturnStatusReceived
	case ReturnStatusReceived:
		return target == ReturnStatusApprovedRefund || target == ReturnStatusRejected
	case ReturnStatusApprovedRefund:
		return target == ReturnStatusCompleted
	case ReturnStatusCompleted, ReturnStatusRejected, ReturnStatusCancelled:
		return false // Terminal states
	}
	return false
}

// CanBeApproved reports whether an approve/reject decision may be taken
func (s ReturnStatus) CanBeApproved() bool {
	return s == ReturnStatusRequested || s == ReturnStatusPendingApproval
}

// CanBeCancelled reports whether the requester may still cancel
func (s ReturnStatus) CanBeCancelled() bool {
	return s == ReturnStatusRequested || s == ReturnStatusPendingApproval || s == ReturnStatusApproved
}

// CanBeRestocked reports whether returned goods may be put back into stock
func (s ReturnStatus) CanBeRestocked() bool {
	return s == ReturnStatusApprovedRefund || s == ReturnStatusCompleted
}

// ReturnType is how the customer wants to be made whole
type ReturnType string

const (
	ReturnTypeRefund      ReturnType = "REFUND"
	ReturnTypeStoreCredit ReturnType = "STORE_CREDIT"
	ReturnTypeExchange    ReturnType = "EXCHANGE"
)

// AllReturnTypes lists every return type
var AllReturnTypes = []ReturnType{ReturnTypeRefund, ReturnTypeStoreCredit, ReturnTypeExchange}

// IsValid checks if the return type is valid
func (t ReturnType) IsValid() bool {
	switch t {
	case ReturnTypeRefund, ReturnTypeStoreCredit, ReturnTypeExchange:
		return true
	}
	return false
}

// String returns the string representation of ReturnType
func (t ReturnType) String() string {
	return string(t)
}

// ReturnReason is the customer-stated reason for a return
type ReturnReason string

const (
	ReturnReasonDefective      ReturnReason = "DEFECTIVE"
	ReturnReasonDamaged        ReturnReason = "DAMAGED"
	ReturnReasonWrongItem      ReturnReason = "WRONG_ITEM"
	ReturnReasonNotAsDescribed ReturnReason = "NOT_AS_DESCRIBED"
	ReturnReasonSizeFit        ReturnReason = "SIZE_FIT"
	ReturnReasonChangedMind    ReturnReason = "CHANGED_MIND"
	ReturnReasonArrivedLate    ReturnReason = "ARRIVED_LATE"
	ReturnReasonOther          ReturnReason = "OTHER"
)

// AllReturnReasons lists every return reason
var AllReturnReasons = []ReturnReason{
	ReturnReasonDefective,
	ReturnReasonDamaged,
	ReturnReasonWrongItem,
	ReturnReasonNotAsDescribed,
	ReturnReasonSizeFit,
	ReturnReasonChangedMind,
	ReturnReasonArrivedLate,
	ReturnReasonOther,
}

// IsValid checks if the reason is valid
func (r ReturnReason) IsValid() bool {
	for _, v := range AllReturnReasons {
		if v == r {
			return true
		}
	}
	return false
}

// String returns the string representation of ReturnReason
func (r ReturnReason) String() string {
	return string(r)
}
