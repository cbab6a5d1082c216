// Package firewall loads address lists into named nftables sets.
//
// # Overview
//
// A set is replaced by flushing it once and then adding its elements in
// bounded chunks. Every add carries the set's declarative attributes, so a
// missing set is created on the fly.
//
// # Architecture
//
//	[]addr.IP → Loader → Sink → Kernel
//
// # Key Types
//
//   - [Loader]: Flushes a set and applies entries chunk by chunk
//   - [SetTemplate]: Family, type, flags and timeouts of a set
//   - [NativeSink]: Talks netlink through github.com/google/nftables
//   - [ScriptSink]: Pipes rendered nft scripts into nft -f -
//   - [DryRunSink]: Writes the same scripts to an io.Writer
//
// # Partial Failure
//
// A failed chunk stops the load and is reported as an [ApplyError]. Chunks
// that were already applied stay in the set; the caller decides whether to
// retry on the next pass.
//
// # Example
//
//	sink, closer, _ := firewall.OpenNative("")
//	defer closer.Close()
//	loader := firewall.NewLoader(sink, 1000, logger)
//	ref := firewall.SetRef{Family: firewall.FamilyINet, Table: "fw4", Name: "blocklist_v4"}
//	loader.Load(ctx, ref, firewall.DefaultSetTemplate(), entries)
package firewall
