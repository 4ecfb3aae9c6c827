// Mentor runs a guided session: it watches the user through a webcam,
// streams frames to the verification daemon, and advances through a
// procedure step by step as the verifier confirms progress. A local
// dashboard exposes live status over HTTP and WebSocket.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gocv.io/x/gocv"

	"github.com/cyclopsvision/go-mentor/internal/log"
	"github.com/cyclopsvision/go-mentor/pkg/detect"
	"github.com/cyclopsvision/go-mentor/pkg/guidance"
	"github.com/cyclopsvision/go-mentor/pkg/procedure"
	"github.com/cyclopsvision/go-mentor/pkg/verify"
	"github.com/cyclopsvision/go-mentor/pkg/web"
)

const (
	captureInterval = 100 * time.Millisecond
	frameMaxDim     = 640
	jpegQuality     = 70
	previewEvery    = 5 // send every Nth frame to the dashboard
)

func main() {
	var (
		serverURL   = pflag.StringP("server", "s", "http://127.0.0.1:8000", "Verifier daemon URL")
		procFile    = pflag.StringP("procedure", "p", "", "Procedure JSON file")
		procID      = pflag.String("procedure-id", "", "Fetch procedure from the daemon by ID")
		cameraID    = pflag.Int("camera", 0, "Camera device index")
		dashAddr    = pflag.String("dashboard", ":8080", "Dashboard bind address")
		modelPath   = pflag.String("model", "models/face_detection_yunet.onnx", "Face detection ONNX model")
		logLevel    = pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	pflag.Parse()

	log.Init(*logLevel)
	logger := log.L()

	proc, err := loadProcedure(*serverURL, *procFile, *procID)
	if err != nil {
		logger.Error("load procedure failed", "error", err)
		os.Exit(1)
	}
	logger.Info("procedure loaded", "title", proc.Title, "steps", proc.NumSteps())

	gw := verify.NewClient(verify.WithBaseURL(*serverURL), verify.WithLogger(logger))

	cfg := guidance.DefaultConfig()
	cfg.Logger = logger
	cfg.EncodeFrame = func(data []byte) (string, error) {
		prepped, err := detect.PrepFrame(data, frameMaxDim, jpegQuality)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(prepped), nil
	}

	engine := guidance.New(gw, cfg)
	dash := web.NewServer(*dashAddr, engine, proc)

	engine.OnStateChange(dash.PushState)
	engine.OnStepCompleted(func(stepIndex int) {
		title := ""
		if stepIndex < len(proc.Steps) {
			title = proc.Steps[stepIndex].Title
		}
		dash.AddLog("step", fmt.Sprintf("step %d complete: %s", stepIndex+1, title))
	})
	engine.OnMistakeDetected(func(reason, suggestion string) {
		msg := reason
		if suggestion != "" {
			msg += " (" + suggestion + ")"
		}
		dash.AddLog("mistake", msg)
		go fetchFeedback(gw, engine, proc, reason, dash)
	})

	var detector detect.Detector
	if yunet, err := detect.NewYuNet(detect.Config{
		ModelPath:        *modelPath,
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}); err != nil {
		logger.Warn("face detection unavailable, assuming user present", "error", err)
	} else {
		detector = yunet
		defer detector.Close()
	}

	cam, err := gocv.OpenVideoCapture(*cameraID)
	if err != nil {
		logger.Error("camera open failed", "device", *cameraID, "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	if err := engine.Configure(proc); err != nil {
		logger.Error("session start failed", "error", err)
		os.Exit(1)
	}
	dash.StartAsync()
	dash.AddLog("info", "session started: "+proc.Title)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	captureLoop(ctx, cam, detector, engine, dash)

	engine.Reset()
	_ = dash.Shutdown()
	logger.Info("session ended")
}

// captureLoop reads camera frames at a fixed cadence, feeds presence and
// frame data to the engine, and mirrors a preview to the dashboard.
func captureLoop(ctx context.Context, cam *gocv.VideoCapture, detector detect.Detector, engine *guidance.Engine, dash *web.Server) {
	img := gocv.NewMat()
	defer img.Close()

	ticker := time.NewTicker(captureInterval)
	defer ticker.Stop()

	frameNum := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if ok := cam.Read(&img); !ok || img.Empty() {
			continue
		}
		frameNum++

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
		if err != nil {
			continue
		}
		jpeg := make([]byte, len(buf.GetBytes()))
		copy(jpeg, buf.GetBytes())
		buf.Close()

		present := true
		if detector != nil {
			dets, err := detector.Detect(jpeg)
			if err == nil {
				present = detect.Present(dets, 0.5)
			}
		}
		engine.IngestPresence(present)
		engine.IngestFrame(jpeg)

		if frameNum%previewEvery == 0 {
			dash.SendCameraFrame(jpeg)
		}

		if engine.Status().Terminal {
			dash.AddLog("info", "procedure finished")
			return
		}
	}
}

// fetchFeedback asks the verifier for a corrective overlay after a mistake
// and posts the guidance text to the session log.
func fetchFeedback(gw verify.Gateway, engine *guidance.Engine, proc *procedure.Procedure, reason string, dash *web.Server) {
	snap := engine.Status()
	if snap.StepIndex >= len(proc.Steps) {
		return
	}
	step := proc.Steps[snap.StepIndex]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := gw.RequestFeedback(ctx, &verify.FeedbackRequest{
		ProcedureID: proc.ID,
		StepID:      step.ID,
		MistakeType: reason,
		Confidence:  snap.Confidence,
	})
	if err != nil {
		log.Debug("feedback request failed", "error", err)
		return
	}
	if resp.Overlay != nil && resp.Overlay.AudioText != "" {
		dash.AddLog("info", "guidance: "+resp.Overlay.AudioText)
	}
}

// loadProcedure reads a procedure from a local JSON file or fetches it from
// the daemon, preferring the file when both are given.
func loadProcedure(serverURL, file, id string) (*procedure.Procedure, error) {
	switch {
	case file != "":
		return procedure.LoadFile(file)
	case id != "":
		return fetchProcedure(serverURL, id)
	default:
		return nil, fmt.Errorf("either --procedure or --procedure-id is required")
	}
}
