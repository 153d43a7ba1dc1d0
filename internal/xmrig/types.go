package xmrig

// CPUInfo is the processor description attached to a submitted benchmark.
type CPUInfo struct {
	Brand    string `json:"brand"`
	Packages int    `json:"packages"`
	Cores    int    `json:"cores"`
	Threads  int    `json:"threads"`
}

// Benchmark is a single submitted benchmark as listed by `/benchmarks?cpu=`.
type Benchmark struct {
	ID       string  `json:"id"`
	CPU      CPUInfo `json:"cpu"`
	Hashrate float64 `json:"hashrate"`
}

type MemoryModule struct {
	Product      string `json:"product"`
	Manufacturer string `json:"manufacturer"`
	Speed        int    `json:"speed"`
	Size         int64  `json:"size"`
}

type DMI struct {
	Memory []MemoryModule `json:"memory"`
}

// BenchmarkDetail is the full record of a benchmark, `DMI` is nil when the
// submitter did not include hardware inventory.
type BenchmarkDetail struct {
	ID       string  `json:"id"`
	CPU      CPUInfo `json:"cpu"`
	Hashrate float64 `json:"hashrate"`
	DMI      *DMI    `json:"dmi"`
}
