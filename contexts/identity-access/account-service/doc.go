// Package accountservice implements registration, authentication, and
// organisation membership inside Atrium.
//
// Layering:
// - domain: core entities, invariants, errors
// - application: use-cases and workers wired through explicit ports
// - ports: stable boundaries for persistence/credentials/tokens/events
// - adapters: concrete HTTP, memory, postgres, bcrypt, and JWT implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under identity-access context.
// - Do not import other context adapters into domain/application.
// - The Identity Store (Repository port) exclusively owns User, Organisation,
//   and Membership rows; nothing else writes them.
package accountservice
