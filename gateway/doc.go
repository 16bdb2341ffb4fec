/*
Package gateway implements the attendance service behind the web UI.

A Gateway combines three pieces of state:

  - the rendezvous store, through which the browser claims the next tag touch
    for registration (OpenRegistrationWindow, PollCapturedTag);
  - the ledger client, which records registrations and attendance marks and
    answers history and roster queries;
  - a ring of the last DefaultRecentCapacity confirmed attendance events and a
    tag to name directory, both in memory and guarded for concurrent HTTP use.

Ledger transactions run detached from the caller's context and are bounded by
Config.TxTimeout, so a client that gives up waiting does not abort a
transaction halfway. An attendance event is appended only after the ledger
confirms the mark.
*/
package gateway
