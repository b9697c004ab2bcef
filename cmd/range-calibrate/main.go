// Command range-calibrate builds a calibration table for a configured
// distance sensor. For each known distance entered at the prompt, it measures
// the sensor voltage repeatedly and records the averaged point. The table is
// written to the device's calibration file when the session ends.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chrissnell/rangesensor/internal/adc"
	"github.com/chrissnell/rangesensor/internal/log"
	"github.com/chrissnell/rangesensor/internal/sensor"
	"github.com/chrissnell/rangesensor/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	deviceName := flag.String("device", "", "Name of the device to calibrate (default: first enabled device)")
	output := flag.String("output", "", "Calibration file to write (default: the device's configured calibration_file)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	provider, err := newProvider(*cfgFile, *cfgBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	deviceConfig, err := selectDevice(provider, *deviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		deviceConfig.CalibrationFile = *output
	}
	if deviceConfig.CalibrationFile == "" {
		fmt.Fprintf(os.Stderr, "Error: device [%s] has no calibration_file configured; pass -output\n", deviceConfig.Name)
		os.Exit(1)
	}

	source, err := adc.New(deviceConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening voltage source: %v\n", err)
		os.Exit(1)
	}
	defer source.Close()

	sens := sensor.New(deviceConfig.Name, source, sensor.Options{
		SampleCount:     deviceConfig.SampleCount,
		CalibrationFile: deviceConfig.CalibrationFile,
	}, log.GetSugaredLogger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Calibrating device [%s]\n", deviceConfig.Name)
	fmt.Printf("Calibration file: %s\n\n", deviceConfig.CalibrationFile)
	if existing := sens.Calibration().Points(); len(existing) > 0 {
		fmt.Printf("Loaded %d existing calibration points.\n\n", len(existing))
	}
	fmt.Println("Place a target at a known distance, then enter the distance in cm.")
	fmt.Println("Each point takes about five seconds to measure. Enter a blank line to finish.")

	runSession(ctx, sens)

	points := sens.Calibration().Points()
	if len(points) == 0 {
		fmt.Println("\nNo calibration points recorded; nothing to save.")
		return
	}

	if err := sens.SaveCalibration(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving calibration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSaved %d calibration points to %s\n", len(points), deviceConfig.CalibrationFile)
	fmt.Println("\n  distance (cm)    voltage (V)    stdev (V)")
	for _, p := range points {
		fmt.Printf("  %13.1f    %11.4f    %9.4f\n", p.DistanceCM, p.VoltageV, p.StdevV)
	}
	if !sens.Calibration().Calibrated() {
		fmt.Println("\nFewer than three points recorded; the sensor will keep using the default curve until more are added.")
	}
}

func runSession(ctx context.Context, sens *sensor.Sensor) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\ndistance (cm): ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return
		}

		distance, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Printf("Could not parse %q as a distance\n", line)
			continue
		}

		fmt.Printf("Measuring at %.1f cm...\n", distance)
		voltage, stdev, err := sens.CalibratePoint(ctx, distance)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("Interrupted.")
				return
			}
			fmt.Printf("Calibration failed: %v\n", err)
			continue
		}
		fmt.Printf("Recorded: %.4f V (stdev %.4f V) at %.1f cm\n", voltage, stdev, distance)
	}
}

func newProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		return config.NewSQLiteProvider(filename)
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

func selectDevice(provider config.ConfigProvider, name string) (*config.DeviceData, error) {
	if name != "" {
		return provider.GetDevice(name)
	}

	devices, err := provider.GetDevices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Enabled {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no enabled devices found in configuration")
}
