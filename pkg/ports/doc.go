/*
Package ports defines the driven ports (interfaces) of the book club service.
These interfaces decouple the signup flow and the admin dashboard from the external
collaborators that persist, list and authenticate, so the core can be tested without a
live network dependency.

# Key Interfaces

  - Inserter: The submission collaborator. Receives one complete AnswerRecord per flow.
  - Lister / Deleter: Used by the admin dashboard to read and remove stored records.
  - Authenticator: Session-based operator login, logout and session lookup.
  - StateStore: Persists flow sessions between stateless requests.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Notifier: Receives accepted submissions (messaging, event bus).
*/
package ports
