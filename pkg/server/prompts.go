package server

import (
	"fmt"
	"strings"

	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

const monitoringSystem = "You are a patient teacher monitoring a student. Output only valid JSON."

// monitoringPrompt asks the model to judge whether the current step is in
// progress, complete, or a mistake, from a short burst of frames.
func monitoringPrompt(stepTitle, stepDescription string, frameCount int) string {
	return fmt.Sprintf(`You are monitoring a student performing a procedural task step-by-step.

CURRENT STEP:
Title: %s
Description: %s

You are shown %d frames captured over ~2 seconds.

ANALYZE and determine the status:

1. "in_progress" - User is still working on the step, hasn't completed it yet
2. "complete" - The step has been successfully completed (matches AFTER state)
3. "mistake" - User made an error that needs correction

OUTPUT FORMAT (JSON only):
{
    "status": "in_progress" | "complete" | "mistake",
    "confidence": 0.0 to 1.0,
    "reason": "Brief observation (max 8 words)",
    "suggestion": "What to fix (only if mistake, else null)"
}

GUIDELINES:
- CHECK TOOL USAGE: Verify that the user is using the specific tools mentioned in the step description.
- If the WRONG tool is used, mark status as "mistake" and reason as "Wrong tool".
- Be patient: Don't mark complete until you're CERTAIN the result is correct
- Be helpful: If there's a clear mistake, identify it specifically
- Most frames will be "in_progress" - that's normal

Return ONLY JSON, no other text.`, stepTitle, stepDescription, frameCount)
}

// overlayPrompt asks the model for a diagram-style correction overlay.
func overlayPrompt(step procedure.Step, mistakeType string) string {
	return fmt.Sprintf(`You are an expert at creating visual instructional overlays for AR training systems.

The user is on this step: "%s"
Description: %s
Expected objects: %s
Expected motion: %s

They made this mistake: "%s"

Generate a helpful diagram-style overlay to correct them. The overlay should look like a technical instruction manual, NOT like raw bounding boxes.

Respond with ONLY valid JSON:
{
    "audio_text": "Clear, concise verbal instruction (1-2 sentences)",
    "elements": [
        {
            "type": "circle",
            "center": [0.5, 0.5],
            "radius": 0.1,
            "color": "#FFD700",
            "stroke_width": 3,
            "style": "solid"
        },
        {
            "type": "arrow",
            "from": [0.3, 0.6],
            "to": [0.5, 0.4],
            "color": "#FF4444",
            "stroke_width": 3,
            "style": "curved"
        },
        {
            "type": "label",
            "position": [0.5, 0.2],
            "text": "Brief instruction",
            "font_size": 16,
            "color": "#FFFFFF",
            "background": "#000000AA"
        }
    ]
}

Guidelines:
- Use normalized coordinates (0.0 to 1.0) where (0,0) is top-left
- Use yellow (#FFD700) for highlighting targets
- Use red (#FF4444) for arrows showing direction
- Use green (#00FF00) for correct positions
- Keep labels short and actionable
- Place elements where they would logically appear based on the task
- Use 2-4 elements maximum for clarity`,
		step.Title, step.Description,
		strings.Join(step.ExpectedObjects, ", "), step.ExpectedMotion,
		mistakeType)
}
