package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/orient"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

// The query commands print the same JSON bodies as the matching
// /api/get_* endpoints.

func (a *app) printJSON(v any) error {
	return json.NewEncoder(a.stdout).Encode(v)
}

func newERACmd(a *app) *cobra.Command {
	var ts string
	cmd := &cobra.Command{
		Use:   "era",
		Short: "Earth rotation angle in degrees at a UTC timestamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := timescale.Parse(ts)
			if err != nil {
				return err
			}
			era, err := orient.EarthRotationAngle(e, timescale.ZeroEOP)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]float64{"angle": era.Deg()})
		},
	}
	cmd.Flags().StringVarP(&ts, "timestamp", "t", "", "UTC timestamp, e.g. 2025-08-01T00:00:00.000Z")
	_ = cmd.MarkFlagRequired("timestamp")
	return cmd
}

func newSunCmd(a *app) *cobra.Command {
	var ts string
	cmd := &cobra.Command{
		Use:   "sun",
		Short: "Geocentric Sun position in km at a UTC timestamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := timescale.Parse(ts)
			if err != nil {
				return err
			}
			st, err := a.cfg.Sun().SunPosition(e)
			if err != nil {
				return err
			}
			p := st.Position
			return a.printJSON([3]float64{p.X, p.Y, p.Z})
		},
	}
	cmd.Flags().StringVarP(&ts, "timestamp", "t", "", "UTC timestamp, e.g. 2025-08-01T00:00:00.000Z")
	_ = cmd.MarkFlagRequired("timestamp")
	return cmd
}

func newECEFCmd(a *app) *cobra.Command {
	var g frames.Geodetic
	cmd := &cobra.Command{
		Use:   "ecef",
		Short: "WGS84 Earth-fixed position in km of a geodetic point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := frames.GeodeticToECEF(g, earthmodel.WGS84)
			if err != nil {
				return err
			}
			p := st.Position
			return a.printJSON([3]float64{p.X, p.Y, p.Z})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&g.LatDeg, "lat", 0, "geodetic latitude, degrees")
	f.Float64Var(&g.LonDeg, "lon", 0, "longitude, degrees")
	f.Float64Var(&g.AltKm, "alt", 0, "height above the ellipsoid, km")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

