// Command simulate runs a headless demo scene: a meteor field with a
// few trigger pickups, stepped at a fixed rate, with an optional
// websocket relay streaming simulation events to spectators.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voidforge/voidforge/internal/config"
	"github.com/voidforge/voidforge/internal/core/collision"
	"github.com/voidforge/voidforge/internal/core/entity"
	"github.com/voidforge/voidforge/internal/core/events/bus"
	"github.com/voidforge/voidforge/internal/core/loop"
	"github.com/voidforge/voidforge/internal/core/observability/log"
	"github.com/voidforge/voidforge/internal/core/physics"
	"github.com/voidforge/voidforge/internal/core/spatial"
	"github.com/voidforge/voidforge/internal/core/world"
	"github.com/voidforge/voidforge/internal/server"
)

// Collision layers for the demo scene.
const (
	layerMeteors uint32 = 1 << 0
	layerPickups uint32 = 1 << 1
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults apply when empty)")
	meteors := flag.Int("meteors", 24, "number of meteors to spawn")
	seed := flag.Int64("seed", 1, "seed for the demo scene layout")
	duration := flag.Duration("duration", 0, "how long to simulate (0 runs until interrupted)")
	flag.Parse()

	if err := run(*configPath, *meteors, *seed, *duration); err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}

func run(configPath string, meteors int, seed int64, duration time.Duration) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := newLogger(cfg.Log)

	w, err := world.New(world.Options{
		Bounds: spatial.AABB{
			X:      cfg.World.Bounds.X,
			Y:      cfg.World.Bounds.Y,
			Width:  cfg.World.Bounds.Width,
			Height: cfg.World.Bounds.Height,
		},
		Gravity:       physics.Vec2{X: cfg.World.GravityX, Y: cfg.World.GravityY},
		MaxObjects:    cfg.World.MaxObjects,
		MaxLevels:     cfg.World.MaxLevels,
		DefaultRadius: cfg.World.DefaultBodyRadius,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Shutdown(); err != nil {
			logger.Error("shutdown failed", log.Error(err))
		}
	}()

	if err := spawnScene(w, cfg.World.Bounds, meteors, rand.New(rand.NewSource(seed))); err != nil {
		return err
	}
	impacts, pickups := observeCollisions(w, logger)

	gameLoop := loop.New(w.Step, loop.Options{Timestep: cfg.Loop.Timestep}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := gameLoop.Start(ctx)
		if err == context.Canceled || err == context.DeadlineExceeded {
			return nil
		}
		return err
	})
	if cfg.Relay.Enabled {
		relay := server.NewRelay(w.Events(), logger)
		g.Go(func() error {
			return relay.Start(ctx, cfg.Relay.Listen)
		})
	}

	logger.Info("simulation running",
		log.Int("meteors", meteors),
		log.Bool("relay", cfg.Relay.Enabled))

	err = g.Wait()
	logger.Info("simulation finished",
		log.Uint64("ticks", gameLoop.Ticks()),
		log.Float64("sim_time", w.TotalTime()),
		log.Int64("impacts", impacts.Load()),
		log.Int64("pickups", pickups.Load()))
	return err
}

func newLogger(cfg config.Log) *log.Logger {
	level := log.ParseLevel(cfg.Level)
	if cfg.Console {
		return log.NewConsole(level)
	}
	return log.New(level)
}

// spawnScene fills the world with drifting meteors and a few stationary
// trigger pickups so collisions of both kinds occur.
func spawnScene(w *world.World, bounds config.Bounds, meteors int, rng *rand.Rand) error {
	randX := func() float64 { return bounds.X + rng.Float64()*bounds.Width }
	randY := func() float64 { return bounds.Y + rng.Float64()*bounds.Height }

	for i := 0; i < meteors; i++ {
		size := 1 + rng.Intn(3)
		radius := float64(size) * 12

		e := w.Entities().CreateEntity()
		if err := e.AddComponent(entity.NewTransform(randX(), randY())); err != nil {
			return err
		}
		if err := e.AddComponent(entity.NewMeteor(size)); err != nil {
			return err
		}
		if err := w.Physics().AddBody(e.ID(), &physics.Body{
			Mass: float64(size),
			Velocity: physics.Vec2{
				X: rng.Float64()*120 - 60,
				Y: rng.Float64()*120 - 60,
			},
			AngularVelocity: rng.Float64()*2 - 1,
			Restitution:     0.9,
		}); err != nil {
			return err
		}
		if err := w.Collision().AddCollider(e.ID(), &collision.Data{
			Shape: collision.Circle(radius),
			Layer: layerMeteors,
			Mask:  layerMeteors | layerPickups,
		}); err != nil {
			return err
		}
	}

	for i := 0; i < meteors/8+1; i++ {
		e := w.Entities().CreateEntity()
		if err := e.AddComponent(entity.NewTransform(randX(), randY())); err != nil {
			return err
		}
		if err := e.AddComponent(entity.NewPowerup("shield", 10)); err != nil {
			return err
		}
		if err := w.Collision().AddCollider(e.ID(), &collision.Data{
			Shape:     collision.Circle(20),
			IsTrigger: true,
			Layer:     layerPickups,
			Mask:      layerMeteors,
		}); err != nil {
			return err
		}
	}
	return nil
}

func observeCollisions(w *world.World, logger log.Log) (impacts, pickups *atomic.Int64) {
	impacts = new(atomic.Int64)
	pickups = new(atomic.Int64)
	_, _ = w.Events().Subscribe(bus.TypePhysicalCollision, func(e bus.Event) error {
		impacts.Add(1)
		p := e.Payload.(bus.CollisionPayload)
		logger.Debug("impact",
			log.String("a", p.A.String()),
			log.String("b", p.B.String()),
			log.Float64("depth", p.Depth))
		return nil
	})
	_, _ = w.Events().Subscribe(bus.TypeTriggerEnter, func(e bus.Event) error {
		pickups.Add(1)
		p := e.Payload.(bus.CollisionPayload)
		logger.Info("pickup touched",
			log.String("a", p.A.String()),
			log.String("b", p.B.String()))
		return nil
	})
	return impacts, pickups
}
