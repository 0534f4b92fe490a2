package main

// Static copy for the windows that have no upstream content.
var (
	AboutMeGreeting = `Hello, I'm Zach`

	AboutMe = []string{
		`I love building software that's both useful and fun, and I'm always curious about how things work behind the scenes.`,
		`Most of my projects start with a simple idea and turn into a chance to learn something new: a different language, a new tool, or a tricky problem.`,
		`When I'm not coding, you'll usually find me training Muay Thai, shooting pool with friends, or chasing down a new challenge outside the screen.`,
	}

	InfoPanelTitle = `Welcome to my desktop`

	InfoPanel = []string{
		`Every window here can be dragged by its title bar and brought forward with a click.`,
		`Use the taskbar to open my projects, experience, resume and contact details.`,
		`The media player in the corner plays what I listen to while I work.`,
	}
)
