package catalog

// Built-in programs.
const (
	ThreeDaySplit ProgramID = "three-day-split"
	FourDaySplit  ProgramID = "four-day-split"
)

// Built-in workouts.
const (
	ChestTriceps WorkoutID = "chest-triceps"
	BackBiceps   WorkoutID = "back-biceps"
	LegsCore     WorkoutID = "legs-core"
	Legs         WorkoutID = "legs"
	ShouldersAbs WorkoutID = "shoulders-abs"
)

var builtin = MustNew(builtinWorkouts(), []Program{
	{
		ID:          ThreeDaySplit,
		Name:        "3-Day Split",
		Description: "Full body coverage in three sessions. Good for beginners or busy schedules.",
		Difficulty:  "Beginner",
		Schedule:    []WorkoutID{ChestTriceps, BackBiceps, LegsCore},
	},
	{
		ID:          FourDaySplit,
		Name:        "4-Day Split",
		Description: "Dedicated shoulder day for balanced muscle development.",
		Difficulty:  "Intermediate",
		Schedule:    []WorkoutID{ChestTriceps, BackBiceps, Legs, ShouldersAbs},
	},
})

// Default returns the built-in catalog.
func Default() *Catalog {
	return builtin
}

func variations(free, machine Variation) map[Equipment]Variation {
	free.Equipment = FreeWeight
	machine.Equipment = Machine
	return map[Equipment]Variation{FreeWeight: free, Machine: machine}
}

func builtinWorkouts() []Workout {
	benchPress := Exercise{
		ID: "bench-press", Name: "Bench Press", Sets: 4, Reps: Reps{Count: 10},
		Variations: variations(
			Variation{
				Name:         "Dumbbell Bench Press",
				Instructions: "Lie flat holding the dumbbells over your chest. Lower until the elbows are slightly below the bench, then press up.",
				Tips:         []string{"Shoulder blades pinned", "Feet flat on the floor"},
				VideoURL:     "https://www.youtube.com/results?search_query=dumbbell+bench+press+form",
			},
			Variation{
				Name:         "Chest Press Machine",
				Instructions: "Set the handles at mid-chest height. Press forward until the arms are extended, then return slowly.",
				Tips:         []string{"Don't lock elbows", "Control the negative"},
				VideoURL:     "https://www.youtube.com/results?search_query=chest+press+machine+form",
			},
		),
	}
	inclinePress := Exercise{
		ID: "incline-press", Name: "Incline Press", Sets: 3, Reps: Reps{Count: 12},
		Variations: variations(
			Variation{
				Name:         "Incline Dumbbell Press",
				Instructions: "Set the bench to 30 degrees. Press the dumbbells from upper chest to lockout.",
				Tips:         []string{"Elbows at 45 degrees"},
			},
			Variation{
				Name:         "Smith Machine Incline Press",
				Instructions: "Lower the bar to the upper chest on an incline bench and press back up.",
				Tips:         []string{"Bar path straight up"},
			},
		),
	}
	pushdown := Exercise{
		ID: "triceps-pushdown", Name: "Triceps Pushdown", Sets: 3, Reps: Reps{Count: 15},
		Variations: variations(
			Variation{
				Name:         "Overhead Dumbbell Extension",
				Instructions: "Hold one dumbbell overhead with both hands and lower it behind the head, then extend.",
				Tips:         []string{"Keep elbows pointing forward"},
			},
			Variation{
				Name:         "Cable Pushdown",
				Instructions: "Grip the rope at chest height and push down until the arms are straight.",
				Tips:         []string{"Pin elbows to your sides"},
			},
		),
	}
	latPulldown := Exercise{
		ID: "lat-pulldown", Name: "Lat Pulldown", Sets: 4, Reps: Reps{Count: 12},
		Variations: variations(
			Variation{
				Name:         "Pull-Ups",
				Instructions: "Hang from the bar with an overhand grip and pull until the chin clears the bar.",
				Tips:         []string{"Full hang at the bottom"},
			},
			Variation{
				Name:         "Cable Lat Pulldown",
				Instructions: "Pull the bar to the upper chest while leaning back slightly.",
				Tips:         []string{"Lead with the elbows"},
			},
		),
	}
	row := Exercise{
		ID: "row", Name: "Row", Sets: 3, Reps: Reps{Count: 10},
		Variations: variations(
			Variation{
				Name:         "Barbell Row",
				Instructions: "Hinge to 45 degrees and row the bar to the lower ribs.",
				Tips:         []string{"Neutral spine", "Squeeze at the top"},
			},
			Variation{
				Name:         "Seated Cable Row",
				Instructions: "Sit tall and pull the handle to the stomach, then extend the arms under control.",
				Tips:         []string{"Don't rock the torso"},
			},
		),
	}
	curl := Exercise{
		ID: "biceps-curl", Name: "Biceps Curl", Sets: 3, Reps: Reps{Count: 15},
		Variations: variations(
			Variation{
				Name:         "Dumbbell Curl",
				Instructions: "Curl the dumbbells with palms up, keeping the elbows still.",
				Tips:         []string{"No swinging"},
			},
			Variation{
				Name:         "Cable Curl",
				Instructions: "Curl the bar from the low pulley to the shoulders.",
				Tips:         []string{"Slow release"},
			},
		),
	}
	squat := Exercise{
		ID: "squat", Name: "Squats", Sets: 4, Reps: Reps{Count: 10},
		Variations: variations(
			Variation{
				Name:         "Goblet Squats",
				Instructions: "Hold the dumbbell vertically against your chest. Keep your back straight and lower your hips until thighs are parallel to the floor.",
				Tips:         []string{"Keep elbows tucked", "Drive through heels"},
				VideoURL:     "https://www.youtube.com/results?search_query=goblet+squat+form",
			},
			Variation{
				Name:         "Leg Press",
				Instructions: "Sit with feet shoulder-width apart. Lower the platform until your knees are at 90 degrees, then push back up.",
				Tips:         []string{"Don't lock knees", "Control the descent"},
				VideoURL:     "https://www.youtube.com/results?search_query=leg+press+form",
			},
		),
	}
	lunge := Exercise{
		ID: "lunge", Name: "Lunges", Sets: 3, Reps: Reps{Count: 12},
		Variations: variations(
			Variation{
				Name:         "Walking DB Lunges",
				Instructions: "Step forward and lower until both knees are bent at 90 degrees. Push off to bring the back foot forward.",
				Tips:         []string{"Torso upright", "Don't let knee pass toe"},
			},
			Variation{
				Name:         "Smith Machine Lunges",
				Instructions: "Place the bar on your upper back, step one foot back and lower your hips.",
				Tips:         []string{"Engage core", "Keep bar path vertical"},
			},
		),
	}
	legExtension := Exercise{
		ID: "leg-extension", Name: "Leg Extensions", Sets: 3, Reps: Reps{Count: 15},
		Variations: map[Equipment]Variation{
			Other: {
				Name:         "Resistance Band Extensions",
				Equipment:    Other,
				Instructions: "Loop the band around a sturdy post and your ankle. Extend your leg against the resistance.",
				Tips:         []string{"Squeeze quads at top", "Slow release"},
			},
			Machine: {
				Name:         "Seated Leg Extension",
				Equipment:    Machine,
				Instructions: "Adjust the pad to rest on your lower shins. Extend your legs until straight, pause, then lower.",
				Tips:         []string{"Don't swing weight", "Hold handles"},
			},
		},
	}
	calfRaise := Exercise{
		ID: "calf-raise", Name: "Calf Raises", Sets: 4, Reps: Reps{Count: 20},
		Variations: variations(
			Variation{Name: "Standing Dumbbell Calf Raise", Instructions: "Rise onto the balls of the feet holding dumbbells, pause, lower slowly."},
			Variation{Name: "Seated Calf Raise", Instructions: "Raise the heels against the pad through the full range of motion."},
		),
	}
	overheadPress := Exercise{
		ID: "overhead-press", Name: "Overhead Press", Sets: 4, Reps: Reps{Count: 10},
		Variations: variations(
			Variation{Name: "Dumbbell Shoulder Press", Instructions: "Press the dumbbells from shoulder height to lockout overhead.", Tips: []string{"Ribs down"}},
			Variation{Name: "Machine Shoulder Press", Instructions: "Press the handles overhead and return to ear level."},
		),
	}
	lateralRaise := Exercise{
		ID: "lateral-raise", Name: "Lateral Raises", Sets: 3, Reps: Reps{Count: 15},
		Variations: variations(
			Variation{Name: "Dumbbell Lateral Raise", Instructions: "Raise the dumbbells out to the sides until level with the shoulders."},
			Variation{Name: "Cable Lateral Raise", Instructions: "Raise the handle across the body to shoulder height."},
		),
	}
	plank := Exercise{
		ID: "plank", Name: "Plank", Sets: 3, Reps: Reps{Duration: "60s"},
		Variations: map[Equipment]Variation{
			Other: {
				Name:         "Forearm Plank",
				Equipment:    Other,
				Instructions: "Hold a straight line from head to heels on your forearms.",
				Tips:         []string{"Squeeze glutes", "Breathe"},
			},
		},
	}
	legRaise := Exercise{
		ID: "leg-raise", Name: "Leg Raises", Sets: 3, Reps: Reps{Count: 15},
		Variations: map[Equipment]Variation{
			Other: {Name: "Hanging Knee Raises", Equipment: Other, Instructions: "Hang from the bar and raise the knees to the chest."},
		},
	}

	return []Workout{
		{
			ID: ChestTriceps, Name: "Chest & Triceps", Muscles: []string{"chest", "triceps"},
			DurationMin: 50, Difficulty: "Intermediate",
			Exercises: []Exercise{benchPress, inclinePress, pushdown},
		},
		{
			ID: BackBiceps, Name: "Back & Biceps", Muscles: []string{"back", "biceps"},
			DurationMin: 50, Difficulty: "Intermediate",
			Exercises: []Exercise{latPulldown, row, curl},
		},
		{
			ID: LegsCore, Name: "Legs & Core", Muscles: []string{"quads", "glutes", "core"},
			DurationMin: 55, Difficulty: "Intermediate",
			Exercises: []Exercise{squat, lunge, plank},
		},
		{
			ID: Legs, Name: "Leg Day - Quads & Glutes", Muscles: []string{"quads", "glutes", "calves"},
			DurationMin: 55, Difficulty: "Intermediate",
			Exercises: []Exercise{squat, lunge, legExtension, calfRaise},
		},
		{
			ID: ShouldersAbs, Name: "Shoulders & Abs", Muscles: []string{"shoulders", "abs"},
			DurationMin: 45, Difficulty: "Intermediate",
			Exercises: []Exercise{overheadPress, lateralRaise, plank, legRaise},
		},
	}
}
