package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/sapphirecore/coresim/pkg/machine"
	"github.com/sapphirecore/coresim/pkg/power"
	"github.com/sapphirecore/coresim/pkg/program"
	"github.com/sapphirecore/coresim/pkg/report"
	"github.com/spf13/cobra"
)

func main() {
	var (
		progPath  string
		cdtPath   string
		outPath   string
		vdd       float64
		fMHz      float64
		verbose   bool
		freeRW    bool
		plotPower bool
		iterFlag  int
		randSeed  uint64
	)

	rootCmd := &cobra.Command{
		Use:   "coresim",
		Short: "cycle-accurate, power-aware simulator for the lattice-cryptography coprocessor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if progPath == "" {
				return fmt.Errorf("--prog is required")
			}

			f, err := os.Open(progPath)
			if err != nil {
				return fmt.Errorf("opening program %s: %w", progPath, err)
			}
			defer f.Close()

			prog, err := program.Load(f)
			if err != nil {
				return fmt.Errorf("preprocessing %s: %w", progPath, err)
			}
			for _, w := range prog.Warnings {
				if verbose {
					fmt.Fprintf(os.Stderr, "warning: %s\n", w)
				}
			}

			cfg := prog.Instructions[0]
			n, err := cfg.Int("n")
			if err != nil {
				return err
			}
			q, err := cfg.Int64("q")
			if err != nil {
				return err
			}

			var cdt []int64
			if cdtPath != "" {
				cf, err := os.Open(cdtPath)
				if err != nil {
					return fmt.Errorf("opening cdt table %s: %w", cdtPath, err)
				}
				cdt, err = program.LoadCDT(cf)
				cf.Close()
				if err != nil {
					return fmt.Errorf("loading cdt table %s: %w", cdtPath, err)
				}
			}

			if randSeed == 0 {
				randSeed = rand.New(rand.NewPCG(uint64(len(progPath)), 0x5A5A5A5A)).Uint64()
			}

			rec := power.NewRecorder(vdd, fMHz, randSeed)
			m, err := machine.New(n, q, rec, randSeed, cdt)
			if err != nil {
				return fmt.Errorf("configuring machine: %w", err)
			}
			m.FreeRW = freeRW

			iterations := iterFlag
			if iterations < 1 {
				iterations = 1
			}
			var runErr error
			for i := 0; i < iterations; i++ {
				if verbose {
					fmt.Fprintf(os.Stderr, "running iteration %d/%d\n", i+1, iterations)
				}
				m.Load(prog.Instructions[1:], prog.Labels)
				if runErr = m.Run(); runErr != nil {
					break
				}
			}
			if runErr != nil {
				return fmt.Errorf("executing %s: %w", progPath, runErr)
			}

			powerReport := rec.Finalize()
			if plotPower {
				fmt.Printf("cycles=%d time=%gs avg_power=%gW energy=%gJ\n",
					powerReport.Cycles, powerReport.TimeSeconds, powerReport.AvgPowerW, powerReport.EnergyJoules)
			}

			summary := report.Summary{
				Program:      progPath,
				N:            n,
				Q:            q,
				VddVolts:     vdd,
				FreqMHz:      fMHz,
				Power:        powerReport,
				Instructions: len(prog.Instructions),
				Warnings:     prog.Warnings,
			}

			if outPath != "" {
				if err := report.Write(outPath, summary); err != nil {
					return err
				}
			}

			fmt.Printf("instructions=%d cycles=%d time=%gs avg_power=%gW energy=%gJ\n",
				summary.Instructions, powerReport.Cycles, powerReport.TimeSeconds,
				powerReport.AvgPowerW, powerReport.EnergyJoules)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&progPath, "prog", "", "path to a core program file (required)")
	rootCmd.Flags().StringVar(&cdtPath, "cdt", "", "path to a discrete-Gaussian CDT table file")
	rootCmd.Flags().StringVar(&outPath, "out", "", "path to write the JSON run summary")
	rootCmd.Flags().Float64Var(&vdd, "vdd", 1.1, "supply voltage, in volts")
	rootCmd.Flags().Float64Var(&fMHz, "fmhz", 72, "clock frequency, in MHz")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "print per-iteration progress to stderr")
	rootCmd.Flags().BoolVar(&freeRW, "free_rw", false, "do not charge cycles/power for poly read/write instructions")
	rootCmd.Flags().BoolVar(&plotPower, "plot_power", false, "print the aggregate power trace to stdout")
	rootCmd.Flags().IntVar(&iterFlag, "iter", 1, "number of times to re-run the program, accumulating cost")
	rootCmd.Flags().Uint64Var(&randSeed, "rand-seed", 0, "seed for the deterministic clobber/noise RNG (0 = derive from --prog)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
