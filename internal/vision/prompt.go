package vision

import "fmt"

const promptTemplate = `Analyze this image and return the workout data in the following JSON format:
{
  "date": "%s",
  "name": "AI Vision Workout",
  "exercises": [
    {
      "name": "<exercise name>",
      "sets": [
        {
          "reps": <number of reps>,
          "weight": <weight used>
        },
        ...
      ]
    },
    ...
  ]
}
Include all exercises and sets visible in the image. You might see notation like 3x10: the first number is the number of sets and the second the reps, so 3x10 means 3 sets of 10 reps each. When no weight is given, use 0. ONLY return the data in JSON format. DO NOT include any other information.`

func buildPrompt(date string) string {
	return fmt.Sprintf(promptTemplate, date)
}
