// bench-hibernation measures heap memory before and after hibernation
// cycles on a sharded scapegoat set loaded with synthetic keys.
//
// Usage:
//
//	go run ./scripts/bench-hibernation --keys 2000000 --shards 8 \
//	  --cycles 3 --pack --profile-dir profiles
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/Sumatoshi-tech/scapegoat/pkg/scapegoat"
)

func main() {
	keys := flag.Int("keys", 2000000, "Number of random keys to load")
	shards := flag.Int("shards", 8, "Shard count")
	alpha := flag.Float64("alpha", 0.65, "Balance parameter in (0.5, 1)")
	cycles := flag.Int("cycles", 3, "Hibernate/boot cycles to measure")
	seed := flag.Int64("seed", 1, "Random seed for key generation")
	pack := flag.Bool("pack", false, "Pack the dormant key blocks while hibernated")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	if *profileDir == "" {
		log.Fatal("--profile-dir is required")
	}

	if err := os.MkdirAll(*profileDir, 0o755); err != nil {
		log.Fatalf("mkdir profile-dir: %v", err)
	}

	if *cpuProfile {
		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	set, err := scapegoat.NewShardedSet(*alpha, *shards)
	if err != nil {
		log.Fatalf("new sharded set: %v", err)
	}

	// Measure heap at phase boundaries.
	type heapSnapshot struct {
		label     string
		heapInUse uint64
		heapSys   uint64
		heapIdle  uint64
		numGC     uint32
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{
			label:     label,
			heapInUse: m.HeapInuse,
			heapSys:   m.HeapSys,
			heapIdle:  m.HeapIdle,
			numGC:     m.NumGC,
		})
		log.Printf("  [heap] %-40s inuse=%6.1f MB  sys=%6.1f MB  idle=%6.1f MB",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6, float64(m.HeapIdle)/1e6)
	}

	writeHeapProfile := func(name string) {
		runtime.GC()
		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	takeSnapshot("before_load")
	writeHeapProfile("heap_before_load.prof")

	rng := rand.New(rand.NewSource(*seed))
	for range *keys {
		set.Insert(rng.Uint32())
	}

	log.Printf("loaded %d distinct keys across %d shards", set.Len(), *shards)

	takeSnapshot("after_load_before_hibernate")
	writeHeapProfile("heap_after_load.prof")

	for cycle := 1; cycle <= *cycles; cycle++ {
		set.HibernateAll()

		if *pack {
			if packErr := set.PackAll(); packErr != nil {
				log.Fatalf("pack: %v", packErr)
			}
		}

		takeSnapshot(fmt.Sprintf("cycle_%d_after_hibernate", cycle))

		if cycle == 1 {
			writeHeapProfile("heap_cycle_1_after_hibernate.prof")
		}

		if *pack {
			if unpackErr := set.UnpackAll(); unpackErr != nil {
				log.Fatalf("unpack: %v", unpackErr)
			}
		}

		set.BootAll()

		takeSnapshot(fmt.Sprintf("cycle_%d_after_boot_before_hibernate", cycle))
	}

	if !set.VerifyAll() {
		log.Fatal("invariants broken after hibernation cycles")
	}

	// Print summary table.
	fmt.Println()
	fmt.Println("=== Heap Memory Timeline ===")
	fmt.Printf("%-45s %10s %10s %10s\n", "Phase", "InUse(MB)", "Sys(MB)", "Idle(MB)")
	fmt.Println("---------------------------------------------+----------+----------+----------")

	for _, s := range snapshots {
		fmt.Printf("%-45s %10.1f %10.1f %10.1f\n",
			s.label, float64(s.heapInUse)/1e6, float64(s.heapSys)/1e6, float64(s.heapIdle)/1e6)
	}

	// Compute hibernation deltas.
	fmt.Println()
	fmt.Println("=== Hibernation Memory Deltas ===")

	for i := 0; i+1 < len(snapshots); i++ {
		curr := snapshots[i]

		next := snapshots[i+1]
		if strings.Contains(curr.label, "before_hibernate") && strings.Contains(next.label, "after_hibernate") {
			delta := float64(curr.heapInUse) - float64(next.heapInUse)
			pct := (delta / float64(curr.heapInUse)) * 100
			fmt.Printf("  %s -> %s: %.1f MB freed (%.1f%%)\n",
				curr.label, next.label, delta/1e6, pct)
		}
	}
}
