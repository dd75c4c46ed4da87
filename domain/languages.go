package domain

// DefaultLanguage is used when a join request carries no language.
const DefaultLanguage = "javascript"

var supportedLanguages = []string{"javascript", "python", "html", "css", "java", "cpp"}

// executableLanguages are the subset with an out-of-process runner.
var executableLanguages = map[string]bool{
	"javascript": true,
	"python":     true,
}

var languageTemplates = map[string]string{
	"javascript": `// Welcome to CodeCollab!
// Start coding with your team in real-time

function helloWorld() {
  console.log("Hello, CodeCollab!");
}

helloWorld();`,
	"python": `# Welcome to CodeCollab!
# Start coding with your team in real-time

def hello_world():
    print("Hello, CodeCollab!")

hello_world()`,
	"html": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>CodeCollab</title>
</head>
<body>
    <h1>Welcome to CodeCollab!</h1>
    <p>Start coding with your team in real-time</p>
</body>
</html>`,
	"css": `/* Welcome to CodeCollab! */
/* Start coding with your team in real-time */

body {
    font-family: Arial, sans-serif;
    margin: 0;
    padding: 20px;
    background-color: #f5f5f5;
}

h1 {
    color: #333;
    text-align: center;
}

p {
    color: #666;
    text-align: center;
}`,
	"java": `// Welcome to CodeCollab!
// Start coding with your team in real-time

public class HelloWorld {
    public static void main(String[] args) {
        System.out.println("Hello, CodeCollab!");
    }
}`,
	"cpp": `// Welcome to CodeCollab!
// Start coding with your team in real-time

#include <iostream>

int main() {
    std::cout << "Hello, CodeCollab!" << std::endl;
    return 0;
}`,
}

// SupportedLanguages returns the closed language enumeration, in order.
func SupportedLanguages() []string {
	return supportedLanguages
}

func IsSupportedLanguage(language string) bool {
	_, ok := languageTemplates[language]
	return ok
}

// CanExecute reports whether the language has an execution backend.
func CanExecute(language string) bool {
	return executableLanguages[language]
}

// Template returns the canonical starter buffer for a language. Unknown
// languages fall back to the default template.
func Template(language string) string {
	if tmpl, ok := languageTemplates[language]; ok {
		return tmpl
	}
	return languageTemplates[DefaultLanguage]
}
