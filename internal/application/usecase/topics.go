package usecase

// Outbound event topics, one logical stream per aggregate. Messages are keyed
// by entity id so same-entity events stay ordered within a partition.
const (
	DepositEventsTopic    = "pix.deposit.events"
	WarningEventsTopic    = "pix.warning.events"
	InfractionEventsTopic = "pix.infraction.events"
	RefundEventsTopic     = "pix.refund.events"
	DevolutionEventsTopic = "pix.devolution.events"
)
