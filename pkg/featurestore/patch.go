package featurestore

// ApplyServerPatch copies the server-assigned fields of a created training
// dataset onto the client descriptor and returns the merged result. The
// server owns version, location, id and the resolved storage connector; all
// other fields keep the client's values. Pure function, safe to test without
// a network.
func ApplyServerPatch(local, server TrainingDataset) TrainingDataset {
	merged := local
	merged.ID = server.ID
	merged.Version = server.Version
	merged.Location = server.Location
	merged.StorageConnector = server.StorageConnector
	return merged
}
