package particle

// DefaultEmitterConfig returns an emitter that produces visible particles out
// of the box: a point source spraying upward at 20 particles per second, with
// white particles fading out over one second.
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		Name:    "emitter",
		Enabled: true,
		Visible: true,

		Shape: PointShape{},
		Mode:  ModeArea,

		Pattern:       PatternContinuous,
		Rate:          20,
		BurstCount:    10,
		BurstCycles:   1,
		BurstInterval: 0.5,
		WindowStart:   0,
		WindowEnd:     1,
		MaxParticles:  500,

		Angle:   -90,
		Spread:  30,
		Looping: true,

		SizeX:           ConstantCurve(1),
		SizeY:           ConstantCurve(1),
		Speed:           ConstantCurve(1),
		Weight:          ConstantCurve(1),
		Spin:            ConstantCurve(1),
		Gravity:         ConstantCurve(1),
		Drag:            ConstantCurve(1),
		Noise:           ConstantCurve(1),
		Attraction:      ConstantCurve(1),
		Vortex:          ConstantCurve(1),
		AngularVelocity: ConstantCurve(1),
		Color: ColorGradient{Stops: []ColorStop{
			{Time: 0, Color: White},
			{Time: 1, Color: RGBA{255, 255, 255, 0}},
		}},

		Lifetime:       Range{Min: 0.8, Max: 1.2},
		LaunchSpeed:    Range{Min: 80, Max: 120},
		SizeXBase:      Fixed(1),
		SizeYBase:      Fixed(1),
		SpeedScale:     Fixed(1),
		WeightBase:     Fixed(1),
		NoiseFrequency: Fixed(0.01),
		NoiseSpeed:     Fixed(1),

		Sprite:     SpriteCircle,
		Blend:      BlendNormal,
		SpawnAngle: SpawnAngleMotion,
	}
}

// DefaultTimeline is a two second loop at 30 fps on a 512x512 canvas.
func DefaultTimeline() Timeline {
	return Timeline{Duration: 2, FPS: 30, Width: 512, Height: 512}
}

// DefaultExportSettings returns the reduction thresholds and names used when a
// preset leaves them out.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		PositionThreshold: 0.5,
		RotationThreshold: 1,
		ScaleThreshold:    0.01,
		ColorThreshold:    2,
		SkeletonName:      "particles",
		RuntimeVersion:    "4.1.0",
		LoopAnimation:     "loop",
		PrewarmAnimation:  "prewarm",
	}
}
