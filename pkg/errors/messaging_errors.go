package errors

var (
	// Domain errors — used by the messaging service and store
	ErrConversationNotFound = NotFound("conversation not found")
	ErrMessageNotFound      = NotFound("message not found")
	ErrParticipantNotFound  = NotFound("participant not found")
	ErrNotParticipant       = Forbidden("requester is not a participant of this conversation")
	ErrNotRecipient         = Forbidden("requester is not the recipient of this message")
	ErrNotAuthorized        = Forbidden("requester is not authorized for this conversation")
	ErrNotAdmin             = InvalidArg("target participant does not hold the admin role")
	ErrNotStaff             = InvalidArg("participant does not hold the staff role")
	ErrConversationArchived = FailedPrecondition("conversation is archived and no longer accepts messages")
	ErrEmptyContent         = InvalidArg("message content cannot be empty")
	ErrSelfConversation     = InvalidArg("cannot open a conversation with yourself")
)

func ErrPushFailed(cause error) error {
	return Wrap(CodeUnavailable, "push notification delivery failed", cause)
}

func ErrStoreFailure(cause error) error {
	return Wrap(CodeInternal, "persistence failure", cause)
}
