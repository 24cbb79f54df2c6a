package toolbuiltin

import (
	"github.com/cexll/deckagent-go/pkg/tool"
)

// GenerationDefinitions returns the closed tool catalog for a generation
// session, in the order it is presented to the model.
func GenerationDefinitions(ws *Workspace) []tool.Definition {
	return []tool.Definition{
		{
			Spec: tool.Spec{
				Name: "create_folder",
				Description: "Create a new folder in the slides directory. " +
					"Use this to organize slide files or assets.",
				InputSchema: &tool.JSONSchema{
					Type: "object",
					Properties: map[string]any{
						"folder_path": map[string]any{
							"type":        "string",
							"description": "Path of the folder to create (relative to project root, e.g., 'slides/assets')",
						},
					},
					Required: []string{"folder_path"},
				},
			},
			Handler: ws.CreateFolder,
		},
		{
			Spec: tool.Spec{
				Name: "create_file",
				Description: "Create a new HTML slide file with complete, valid HTML content, " +
					"or a CSS file with complete valid CSS content. " +
					"The content parameter must contain the COMPLETE file, not a snippet.",
				InputSchema: &tool.JSONSchema{
					Type: "object",
					Properties: map[string]any{
						"file_path": map[string]any{
							"type":        "string",
							"description": "Path where the file should be created (e.g., 'slides/slide_1.html')",
						},
						"content": map[string]any{
							"type":        "string",
							"description": "Complete file content including DOCTYPE, head, and body for HTML files",
						},
					},
					Required: []string{"file_path", "content"},
				},
			},
			Handler: ws.CreateFile,
		},
		{
			Spec: tool.Spec{
				Name: "read_file",
				Description: "Read the contents of an existing file. " +
					"Use this to review previously created slides or configuration files.",
				InputSchema: &tool.JSONSchema{
					Type: "object",
					Properties: map[string]any{
						"file_path": map[string]any{
							"type":        "string",
							"description": "Path of the file to read",
						},
					},
					Required: []string{"file_path"},
				},
			},
			Handler: ws.ReadFile,
		},
		{
			Spec: tool.Spec{
				Name: "update_file",
				Description: "Update an existing HTML slide file with corrected or modified content. " +
					"The content parameter should be the COMPLETE updated file.",
				InputSchema: &tool.JSONSchema{
					Type: "object",
					Properties: map[string]any{
						"file_path": map[string]any{
							"type":        "string",
							"description": "Path of the file to update",
						},
						"content": map[string]any{
							"type":        "string",
							"description": "Complete updated file content",
						},
					},
					Required: []string{"file_path", "content"},
				},
			},
			Handler: ws.UpdateFile,
		},
		{
			Spec: tool.Spec{
				Name: "list_files",
				Description: "List all files in a directory. " +
					"Use this to see what slides have been created.",
				InputSchema: &tool.JSONSchema{
					Type: "object",
					Properties: map[string]any{
						"directory": map[string]any{
							"type":        "string",
							"description": "Directory to list files from (default: 'slides')",
						},
					},
					Required: []string{},
				},
			},
			Handler: ws.ListFiles,
		},
		{
			Spec: tool.Spec{
				Name: ReturnResultName,
				Description: "Return the final result of the PPT generation process. " +
					"Use this ONLY when all slides have been created and you're ready to finish.",
				InputSchema: &tool.JSONSchema{
					Type: "object",
					Properties: map[string]any{
						"success": map[string]any{
							"type":        "boolean",
							"description": "Whether the PPT generation was successful",
						},
						"message": map[string]any{
							"type":        "string",
							"description": "Summary message about the generated presentation",
						},
						"slide_count": map[string]any{
							"type":        "integer",
							"description": "Number of slides created",
						},
						"slide_files": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "List of slide file paths created",
						},
					},
					Required: []string{"success", "message", "slide_count", "slide_files"},
				},
			},
			Handler:  ReturnResult,
			Terminal: true,
		},
	}
}

// NewGenerationRegistry assembles the generation tool registry over a
// workspace.
func NewGenerationRegistry(ws *Workspace) (*tool.Registry, error) {
	return tool.NewRegistry(GenerationDefinitions(ws)...)
}
