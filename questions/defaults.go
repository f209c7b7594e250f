package questions

var bundled = []Question{
	{ID: "1", Text: "What is the main purpose of a descriptive text?", Options: []string{"To tell a story", "To describe a person, place, or thing", "To persuade the reader", "To explain a process"}, CorrectAnswer: 1},
	{ID: "2", Text: `"The cat has thick white fur and blue eyes." This sentence is an example of...`, Options: []string{"Identification", "Description", "Resolution", "Orientation"}, CorrectAnswer: 1},
	{ID: "3", Text: "Which tense is mostly used in descriptive text?", Options: []string{"Simple Past Tense", "Simple Future Tense", "Simple Present Tense", "Present Continuous Tense"}, CorrectAnswer: 2},
	{ID: "4", Text: "The part of descriptive text that introduces the object to be described is called...", Options: []string{"Description", "Reiteration", "Identification", "Classification"}, CorrectAnswer: 2},
	{ID: "5", Text: `Identify the adjective in this sentence: "The big blue building is my school."`, Options: []string{"Building", "School", "Big and Blue", "Is"}, CorrectAnswer: 2},
	{ID: "6", Text: `To describe "Borobudur Temple", we should focus on its...`, Options: []string{"History of kings", "Physical features and location", "Legends and myths", "Daily activities of visitors"}, CorrectAnswer: 1},
	{ID: "7", Text: `"It has a very long neck and orange spots." What animal is being described?`, Options: []string{"Elephant", "Giraffe", "Zebra", "Lion"}, CorrectAnswer: 1},
	{ID: "8", Text: `Which word is a synonym for "beautiful" in a description?`, Options: []string{"Ugly", "Pretty", "Plain", "Dirty"}, CorrectAnswer: 1},
	{ID: "9", Text: `"My fluffy rabbit loves eating carrots." The word "fluffy" describes the rabbit's...`, Options: []string{"Weight", "Color", "Fur texture", "Height"}, CorrectAnswer: 2},
	{ID: "10", Text: "A descriptive text usually focuses on...", Options: []string{"Generic objects", "A specific participant", "General groups", "Imaginary characters"}, CorrectAnswer: 1},
}

// Default returns a fresh copy of the bundled question set.
func Default() []Question {
	return Sanitize(bundled)
}
