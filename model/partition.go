package model

import "github.com/yllada/wifi-manager/wireless"

// Partition splits the cached lists for display. saved holds the known
// networks other than the current one; unsaved holds the scan entries whose
// SSID matches no known network, duplicates included.
func Partition(known []wireless.KnownNetwork, scan wireless.ScanResult) (saved []wireless.KnownNetwork, unsaved []wireless.WirelessInfo) {
	knownSSIDs := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSSIDs[k.SSID] = struct{}{}
		if !k.IsCurrent() {
			saved = append(saved, k)
		}
	}

	for _, w := range scan {
		if _, ok := knownSSIDs[w.Name]; !ok {
			unsaved = append(unsaved, w)
		}
	}
	return saved, unsaved
}

// Partition applies Partition to the model's cached lists.
func (m *Model) Partition() (saved []wireless.KnownNetwork, unsaved []wireless.WirelessInfo) {
	return Partition(m.known.Get(), m.scan.Get())
}
