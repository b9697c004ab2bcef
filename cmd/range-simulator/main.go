// Command range-simulator runs the full measurement pipeline against a
// simulated sensor and prints each reading. The simulated target wanders
// between the sensor's distance limits with a random walk so the filter and
// smoothing behavior can be observed without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/rangesensor/internal/acquisition"
	"github.com/chrissnell/rangesensor/internal/adc"
	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/sensor"
)

func main() {
	interval := flag.Duration("interval", 250*time.Millisecond, "Time between readings")
	distance := flag.Float64("distance", 15.0, "Initial simulated target distance in cm")
	noise := flag.Float64("noise", 0.02, "Voltage noise stdev in volts")
	walk := flag.Float64("walk", 0.5, "Random walk step for the target distance in cm (0 holds it still)")
	count := flag.Int("count", 0, "Number of readings to produce before exiting (0 runs until interrupted)")
	rawOnly := flag.Bool("raw", false, "Disable the recursive filter and print raw conversions")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := adc.NewSimulatedSource(*distance, *noise)
	sens := sensor.New("simulator", source, sensor.Options{DisableFilter: *rawOnly}, log.GetSugaredLogger())
	loop := acquisition.NewLoop(sens, log.GetSugaredLogger())

	if *walk > 0 {
		go wander(ctx, source, *distance, *walk, *interval)
	}

	loop.Start(ctx, *interval)
	defer loop.Stop()

	fmt.Println("timestamp                      distance    raw         voltage     stdev")

	produced := 0
	for {
		select {
		case r := <-loop.Readings():
			fmt.Printf("%-28s %8.2f cm %8.2f cm %8.4f V %8.4f V\n",
				r.Timestamp.Format(time.RFC3339Nano), r.DistanceCM, r.DistanceRawCM, r.VoltageV, r.VoltageStdV)
			produced++
			if *count > 0 && produced >= *count {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// wander moves the simulated target with a bounded random walk.
func wander(ctx context.Context, source *adc.SimulatedSource, start, step float64, interval time.Duration) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	current := start

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			current += (rng.Float64()*2 - 1) * step
			if current < sensor.MinDistanceCM {
				current = sensor.MinDistanceCM
			}
			if current > sensor.MaxDistanceCM {
				current = sensor.MaxDistanceCM
			}
			source.SetDistance(current)
		case <-ctx.Done():
			return
		}
	}
}
