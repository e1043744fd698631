/*
Package domain contains the core domain models of the book club signup service.

It defines the answer record collected by the signup flow, the step script that
describes each page of the book, and the persisted flow state. This package is kept
pure and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - AnswerRecord: The candidate's answers, one string per known Field.
  - StoredRecord: An AnswerRecord after the external store assigned an ID and timestamp.
  - Script / Step: The ordered page descriptors (cover, questions, terminal).
  - FlowState: The runtime snapshot of a signup session (current step, answers, busy flag).
  - AdminSession: An authenticated operator session for the dashboard.
*/
package domain
