// ABOUTME: Soundcheck: opens an output driver, reports its format, plays a tone
// ABOUTME: Also finds livepaper monitors and plays a remote monitor's mix
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livepaper/livepaper-go/internal/discovery"
	"github.com/livepaper/livepaper-go/internal/monitor"
	"github.com/livepaper/livepaper-go/pkg/application"
	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/driver"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
	"github.com/livepaper/livepaper-go/pkg/audio/stream"
)

func main() {
	driverName := flag.String("driver", "oto", "Audio driver to test")
	sampleRate := flag.Int("rate", 48000, "Requested sample rate")
	channels := flag.Int("channels", 2, "Requested channel count")
	encoding := flag.String("encoding", "s16", "Requested sample encoding: s16, s24, s32, f32")
	frequency := flag.Float64("freq", 440, "Tone frequency in Hz")
	duration := flag.Duration("duration", 2*time.Second, "Tone duration")
	discover := flag.Bool("discover", false, "List livepaper monitors on the network instead")
	listen := flag.String("listen", "", "Play the mix of the monitor at host:port instead of a tone")
	flag.Parse()

	if *discover {
		listMonitors()
		return
	}

	enc, err := audio.ParseEncoding(*encoding)
	if err != nil {
		log.Fatalf("Invalid encoding: %v", err)
	}
	format := audio.Format{Encoding: enc, SampleRate: *sampleRate, Channels: *channels}

	appCtx := application.New(application.Config{Name: "soundcheck"})

	drv, err := driver.New(*driverName, driver.Options{
		Format:  format,
		OnError: appCtx.ReportError,
	})
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *driverName, err)
	}
	defer drv.Close()

	fmt.Printf("Driver:      %s\n", drv.Name())
	fmt.Printf("Format:      %s\n", drv.Format())
	fmt.Printf("Sample rate: %d Hz\n", drv.SampleRate())
	fmt.Printf("Channels:    %d\n", drv.Channels())

	ctx, err := mixer.NewContext(drv, appCtx)
	if err != nil {
		log.Fatalf("Failed to create audio context: %v", err)
	}
	defer ctx.Close()

	if *listen != "" {
		if err := drv.Start(ctx); err != nil {
			log.Fatalf("Failed to start %s: %v", drv.Name(), err)
		}
		if err := playRemote(ctx, *listen); err != nil {
			log.Fatalf("Remote playback failed: %v", err)
		}
		return
	}

	tone := stream.NewTone(ctx.Format(), *frequency, *duration)
	if _, err := ctx.AddStream(tone); err != nil {
		log.Fatalf("Failed to register tone: %v", err)
	}

	if err := drv.Start(ctx); err != nil {
		log.Fatalf("Failed to start %s: %v", drv.Name(), err)
	}

	fmt.Printf("Playing %.0f Hz for %v...\n", *frequency, *duration)
	deadline := time.After(*duration + 500*time.Millisecond)
	for ctx.Len() > 0 {
		select {
		case <-deadline:
			fmt.Println("Tone did not finish; device may not be pulling audio")
			os.Exit(1)
		case <-time.After(50 * time.Millisecond):
		}
	}

	stats := ctx.Stats()
	fmt.Printf("Mix passes:  %d (underruns: %d)\n", stats.Passes, stats.Underruns)
	if n := appCtx.ErrorCount(); n > 0 {
		fmt.Printf("Device errors: %d (last: %v)\n", n, appCtx.LastError())
		os.Exit(1)
	}
}

// listMonitors browses mDNS for a few seconds and prints what it finds
func listMonitors() {
	mgr := discovery.NewManager(discovery.Config{BrowseTimeout: 2 * time.Second})
	mgr.Browse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := make(map[string]bool)
	for {
		select {
		case inst, ok := <-mgr.Instances():
			if !ok {
				return
			}
			if seen[inst.Addr()] {
				continue
			}
			seen[inst.Addr()] = true
			fmt.Printf("%-24s ws://%s%s\n", inst.Name, inst.Addr(), inst.Path)
		case <-ctx.Done():
			mgr.Stop()
			if len(seen) == 0 {
				fmt.Println("No livepaper monitors found")
			}
			return
		}
	}
}

// playRemote plays a monitor's audio feed until interrupted or the
// monitor goes away
func playRemote(ctx *mixer.Context, addr string) error {
	dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := monitor.Dial(dialCtx, addr, "")
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Listen(true); err != nil {
		return fmt.Errorf("listen request failed: %w", err)
	}

	var start monitor.StreamStart
	select {
	case s, ok := <-c.StreamStart:
		if !ok {
			return fmt.Errorf("monitor closed before audio started")
		}
		start = s
	case msg, ok := <-c.Errors:
		if !ok {
			return fmt.Errorf("monitor closed before audio started")
		}
		return fmt.Errorf("monitor refused: %s", msg)
	case <-dialCtx.Done():
		return fmt.Errorf("no audio announced: %w", dialCtx.Err())
	}
	fmt.Printf("Remote mix:  %s\n", start.CodecParams)

	src, err := stream.NewPacketSource(start.CodecParams, forwardPackets(c))
	if err != nil {
		return err
	}
	queue := stream.NewQueue("remote:"+addr, ctx.Format(), stream.DefaultQueueMs)
	pump, err := stream.NewPump(stream.Conform(src, ctx.Format()), queue)
	if err != nil {
		src.Close()
		return err
	}

	h, err := ctx.AddStream(queue)
	if err != nil {
		src.Close()
		return err
	}
	defer ctx.RemoveStream(h)

	pump.Start(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("Stopping")
	case <-pump.Done():
		fmt.Println("Remote feed ended")
	}

	// closing the connection ends the packet channel, which ends the pump
	c.Close()
	pump.Stop()

	stats := ctx.Stats()
	fmt.Printf("Mix passes:  %d (underruns: %d)\n", stats.Passes, stats.Underruns)
	return pump.Err()
}

// forwardPackets strips monitor framing and hands payloads to a decoder
func forwardPackets(c *monitor.Client) <-chan []byte {
	packets := make(chan []byte, 16)
	go func() {
		defer close(packets)
		for {
			select {
			case chunk, ok := <-c.AudioChunks:
				if !ok {
					return
				}
				select {
				case packets <- chunk.Data:
				case <-c.Done():
					return
				}
			case <-c.Done():
				return
			}
		}
	}()
	return packets
}
