package fakeapi

// Course is the static content a Server serves.
type Course struct {
	Levels []CourseLevel
}

// CourseLevel is a level with its lessons.
type CourseLevel struct {
	ID      int
	Title   string // the code users see, e.g. "A0"
	Lessons []CourseLesson
}

// CourseLesson is a lesson with its sentences in presentation order.
type CourseLesson struct {
	ID        int
	Number    int
	Title     string
	Sentences []CourseSentence
}

// CourseSentence is one exercise.
type CourseSentence struct {
	ID            int
	Prompt        string
	Answer        string
	Transcription string
	AudioPath     string
}

// DefaultCourse is a small two-level course used by the dev server.
func DefaultCourse() Course {
	return Course{Levels: []CourseLevel{
		{ID: 1, Title: "A0", Lessons: []CourseLesson{
			{ID: 1, Number: 1, Title: "Greetings", Sentences: []CourseSentence{
				{ID: 1, Prompt: "Привет!", Answer: "Hello!", Transcription: "[həˈləʊ]", AudioPath: "audio/1.mp3"},
				{ID: 2, Prompt: "Как дела?", Answer: "How are you?", Transcription: "[haʊ ɑː juː]"},
				{ID: 3, Prompt: "Меня зовут Анна.", Answer: "My name is Anna."},
			}},
			{ID: 2, Number: 2, Title: "Coming soon"},
		}},
		{ID: 2, Title: "A1", Lessons: []CourseLesson{
			{ID: 3, Number: 1, Title: "To be", Sentences: []CourseSentence{
				{ID: 10, Prompt: "Я студент.", Answer: "I am a student."},
				{ID: 11, Prompt: "Она дома.", Answer: "She is at home."},
				{ID: 12, Prompt: "Мы не устали.", Answer: "We are not tired."},
			}},
			{ID: 4, Number: 2, Title: "Present simple", Sentences: []CourseSentence{
				{ID: 20, Prompt: "Я люблю кофе.", Answer: "I like coffee."},
				{ID: 21, Prompt: "Он работает в офисе.", Answer: "He works in an office."},
			}},
			{ID: 5, Number: 3, Title: "Questions", Sentences: []CourseSentence{
				{ID: 30, Prompt: "Ты говоришь по-английски?", Answer: "Do you speak English?"},
				{ID: 31, Prompt: "Где ты живёшь?", Answer: "Where do you live?"},
			}},
			{ID: 6, Number: 4, Title: "Negatives", Sentences: []CourseSentence{
				{ID: 40, Prompt: "Я не знаю.", Answer: "I don't know."},
				{ID: 41, Prompt: "Она не курит.", Answer: "She doesn't smoke."},
			}},
			{ID: 7, Number: 5, Title: "Past simple", Sentences: []CourseSentence{
				{ID: 50, Prompt: "Вчера я видел его.", Answer: "I saw him yesterday."},
				{ID: 51, Prompt: "Мы были в Лондоне.", Answer: "We were in London."},
			}},
			{ID: 8, Number: 6, Title: "Future", Sentences: []CourseSentence{
				{ID: 60, Prompt: "Я позвоню тебе завтра.", Answer: "I will call you tomorrow."},
			}},
		}},
	}}
}
