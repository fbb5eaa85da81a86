package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// RegistriesEndpoint is the endpoint for creating and listing registries
	RegistriesEndpoint = "/registries"
	// RegistryEndpoint is the endpoint to get a registry's info
	RegistryURLParam = "registryId"
	RegistryEndpoint = "/registries/{" + RegistryURLParam + "}"
	// RegistryParticipantsEndpoint is the endpoint for registering participants
	RegistryParticipantsEndpoint = RegistryEndpoint + "/participants"
	// RegistryProofEndpoint is the endpoint for membership proofs against the
	// registry's current root
	RegistryProofEndpoint = RegistryEndpoint + "/proof"
	// RegistryFreezeEndpoint and RegistryUnfreezeEndpoint toggle the registry
	// lifecycle
	RegistryFreezeEndpoint   = RegistryEndpoint + "/freeze"
	RegistryUnfreezeEndpoint = RegistryEndpoint + "/unfreeze"
	// RoundsEndpoint is the endpoint for creating and listing rounds
	RoundsEndpoint = "/rounds"
	// RoundEndpoint is the endpoint to get a round's full state
	EventIDURLParam = "eventId"
	RoundEndpoint   = "/rounds/{" + EventIDURLParam + "}"
	// RoundAdvanceEndpoint moves the round to its next phase
	RoundAdvanceEndpoint = RoundEndpoint + "/advance"
	// RoundCommitmentsEndpoint is the endpoint for submitting commitments
	RoundCommitmentsEndpoint = RoundEndpoint + "/commitments"
	// RoundSendersEndpoint is the endpoint for sender determination proofs
	// and for listing the accepted sender slots
	RoundSendersEndpoint = RoundEndpoint + "/senders"
	// RoundDisclosuresEndpoint is the endpoint for receiver disclosure proofs
	RoundDisclosuresEndpoint = RoundEndpoint + "/disclosures"
	// RoundPayloadEndpoint serves the encrypted payload stored under a
	// nullifier
	RoundPayloadEndpoint = RoundEndpoint + "/payload"
	// EventsEndpoint serves the audit event log
	EventsEndpoint = "/events"
)
