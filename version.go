package teco

// Version is the release version of this module.
const Version = "0.1"

// UserAgent identifies this SDK generation on outgoing requests.
const UserAgent = "Teco/" + Version
