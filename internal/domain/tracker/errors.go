package tracker

import "github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"

var (
	ErrInvalidTicket        = shared.NewDomainError("INVALID_TICKET", "Invalid ticket")
	ErrUnknownAckType       = shared.NewDomainError("UNKNOWN_ACK_TYPE", "Unknown ack type")
	ErrAckNotAllowed        = shared.NewDomainError("ACK_NOT_ALLOWED", "This ack cannot be added to the ticket")
	ErrAckExists            = shared.NewDomainError("ACK_EXISTS", "Ticket already has this ack")
	ErrDepositNotZero       = shared.NewDomainError("DEPOSIT_NOT_ZERO", "Deposit should be zero when creating a ticket")
	ErrDepositLocked        = shared.NewDomainError("DEPOSIT_LOCKED", "Cannot edit deposit once a ticket has been preaccepted")
	ErrDepositTooHigh       = shared.NewDomainError("DEPOSIT_TOO_HIGH", "Deposit should be lower or equal to the sum of preexpeditures")
	ErrSubtopicMismatch     = shared.NewDomainError("INVALID_SUBTOPIC", "Subtopic must belong to the topic you used.")
	ErrStatutoryRequired    = shared.NewDomainError("STATUTORY_DECLARATION_REQUIRED", "You are required to do statutory declaration")
	ErrTopicClosed          = shared.NewDomainError("TOPIC_CLOSED", "Topic is not open for tickets")
	ErrExpeditureLocked     = shared.NewDomainError("EXPEDITURES_LOCKED", "You can not edit expeditures of this ticket.")
	ErrPreexpeditureLocked  = shared.NewDomainError("PREEXPEDITURES_LOCKED", "You can not edit preexpeditures of this ticket.")
	ErrInvalidFilename      = shared.NewDomainError("INVALID_FILENAME", "We need a sane file name, such as my-invoice123.jpg")
	ErrDuplicateDocument    = shared.NewDomainError("DUPLICATE_DOCUMENT", "Document with this filename already exists on the ticket")
	ErrDuplicateMedia       = shared.NewDomainError("DUPLICATE_MEDIA", "Media is already attached to the ticket")
	ErrSignatureUnsupported = shared.NewDomainError("SIGNATURE_UNSUPPORTED", "Ticket does not take statutory declarations")
	ErrInvalidGrant         = shared.NewDomainError("INVALID_GRANT", "Invalid grant")
	ErrInvalidTopic         = shared.NewDomainError("INVALID_TOPIC", "Invalid topic")
	ErrCommentsDisabled     = shared.NewDomainError("COMMENTS_DISABLED", "Comments are disabled for this ticket")
)
