/*
Package agent implements the tag agent: the process next to the NFC reader.

For every touch the agent first offers the tag to the rendezvous store. If a
registration window is open the store captures the tag and the touch ends
there. Otherwise the tag is queued for a worker goroutine that forwards it to
the gateway as attendance, each forward bounded by Config.ForwardTimeout, so
sensing never waits on the network. A failing store degrades the agent to
attendance-only instead of stopping it.

Tags come from an interfaces.TagSource:

  - PCSCSource reads contactless cards through PC/SC (build with -tags nopcsc
    to drop the dependency on libpcsclite);
  - ConsoleSource simulates a reader from typed lines.
*/
package agent
