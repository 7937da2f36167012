package models

import "sort"

// RankTopClients returns, for every agency that has clients, each client whose
// bill equals that agency's maximum. Clients whose agency has no name entry
// are skipped. Rows are ordered by bill descending; equal bills keep input order.
func RankTopClients(clients []*Client, agencyNames map[string]string) []TopClient {
	maxBill := make(map[string]float64)
	for _, c := range clients {
		if current, ok := maxBill[c.AgencyID]; !ok || c.TotalBill > current {
			maxBill[c.AgencyID] = c.TotalBill
		}
	}

	rows := make([]TopClient, 0, len(maxBill))
	for _, c := range clients {
		name, ok := agencyNames[c.AgencyID]
		if !ok || c.TotalBill != maxBill[c.AgencyID] {
			continue
		}
		rows = append(rows, TopClient{AgencyName: name, ClientName: c.Name, TotalBill: c.TotalBill})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalBill > rows[j].TotalBill
	})
	return rows
}
