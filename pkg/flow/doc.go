/*
Package flow drives the signup book.

A Controller is the in-process state machine of one session: it advances and
retreats between pages, records answers and hands the finished record to a
ports.Inserter. A Service runs the same machine over a ports.StateStore so
the session survives between requests and replicas.

Navigation never fails. Only a successful submission reaches the terminal page.
*/
package flow
