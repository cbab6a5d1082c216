package fetch

import (
	"fmt"
	"sort"
)

// FireHOLList describes a list published at https://iplists.firehol.org/.
type FireHOLList struct {
	Name        string
	URL         string
	Description string
	Category    string
}

// WellKnownLists are the FireHOL lists addressable as firehol:<name>.
var WellKnownLists = map[string]FireHOLList{
	"firehol_level1": {
		Name:        "firehol_level1",
		URL:         "https://iplists.firehol.org/files/firehol_level1.netset",
		Description: "Attacks, malware, during the last 48 hours",
		Category:    "attacks",
	},
	"firehol_level2": {
		Name:        "firehol_level2",
		URL:         "https://iplists.firehol.org/files/firehol_level2.netset",
		Description: "Attacks, malware, spyware, during the last 48 hours",
		Category:    "attacks",
	},
	"firehol_level3": {
		Name:        "firehol_level3",
		URL:         "https://iplists.firehol.org/files/firehol_level3.netset",
		Description: "Attacks, during the last 30 days",
		Category:    "attacks",
	},
	"spamhaus_drop": {
		Name:        "spamhaus_drop",
		URL:         "https://iplists.firehol.org/files/spamhaus_drop.netset",
		Description: "Spamhaus Don't Route Or Peer list",
		Category:    "spam",
	},
	"spamhaus_edrop": {
		Name:        "spamhaus_edrop",
		URL:         "https://iplists.firehol.org/files/spamhaus_edrop.netset",
		Description: "Spamhaus Extended DROP list",
		Category:    "spam",
	},
	"dshield": {
		Name:        "dshield",
		URL:         "https://iplists.firehol.org/files/dshield.netset",
		Description: "DShield top attacking IPs",
		Category:    "attacks",
	},
	"blocklist_de": {
		Name:        "blocklist_de",
		URL:         "https://iplists.firehol.org/files/blocklist_de.ipset",
		Description: "Blocklist.de all attacks",
		Category:    "attacks",
	},
	"et_compromised": {
		Name:        "et_compromised",
		URL:         "https://iplists.firehol.org/files/et_compromised.ipset",
		Description: "Emerging Threats compromised IPs",
		Category:    "compromised",
	},
	"feodo": {
		Name:        "feodo",
		URL:         "https://iplists.firehol.org/files/feodo.ipset",
		Description: "Feodo Tracker botnet C&C servers",
		Category:    "botnet",
	},
	"tor_exits": {
		Name:        "tor_exits",
		URL:         "https://iplists.firehol.org/files/tor_exits.ipset",
		Description: "TOR exit nodes",
		Category:    "anonymizers",
	},
	"fullbogons": {
		Name:        "fullbogons",
		URL:         "https://iplists.firehol.org/files/fullbogons.netset",
		Description: "Full bogons - unallocated IPv4 space",
		Category:    "bogons",
	},
}

// FireHOLURL resolves a FireHOL list name. Unknown names are assumed to be
// published as <name>.netset.
func FireHOLURL(name string) string {
	if info, ok := WellKnownLists[name]; ok {
		return info.URL
	}
	return fmt.Sprintf("https://iplists.firehol.org/files/%s.netset", name)
}

// ListAvailable returns the well-known lists sorted by name.
func ListAvailable() []FireHOLList {
	lists := make([]FireHOLList, 0, len(WellKnownLists))
	for _, info := range WellKnownLists {
		lists = append(lists, info)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists
}
