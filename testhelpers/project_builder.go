package testhelpers

import (
	"fmt"
	"strings"
)

// ProjectBuilder produces project descriptors shaped like the ones the
// engine generates: two-space indentation, a default namespace and a
// DefineConstants list in the Debug property group.
type ProjectBuilder struct {
	properties []string
	defines    string
	references []reference
	compile    []string
	crlf       bool
}

type reference struct {
	include  string
	hintPath string
}

// NewProjectBuilder creates a builder with the usual engine defines.
func NewProjectBuilder() *ProjectBuilder {
	return &ProjectBuilder{
		defines: "DEBUG;TRACE;UNITY_5_6",
		properties: []string{
			"<TargetFrameworkVersion>v3.5</TargetFrameworkVersion>",
		},
	}
}

// WithDefines sets the DefineConstants value ("" removes the element).
func (b *ProjectBuilder) WithDefines(defines string) *ProjectBuilder {
	b.defines = defines
	return b
}

// WithProperty adds a raw property element to the first property group.
func (b *ProjectBuilder) WithProperty(xml string) *ProjectBuilder {
	b.properties = append(b.properties, xml)
	return b
}

// WithoutProperties drops the default TargetFrameworkVersion.
func (b *ProjectBuilder) WithoutProperties() *ProjectBuilder {
	b.properties = nil
	return b
}

// WithReference adds an assembly reference, with an optional hint path.
func (b *ProjectBuilder) WithReference(include, hintPath string) *ProjectBuilder {
	b.references = append(b.references, reference{include: include, hintPath: hintPath})
	return b
}

// WithCompile adds a source file.
func (b *ProjectBuilder) WithCompile(file string) *ProjectBuilder {
	b.compile = append(b.compile, file)
	return b
}

// WithCRLF switches line endings to CRLF.
func (b *ProjectBuilder) WithCRLF() *ProjectBuilder {
	b.crlf = true
	return b
}

// Build renders the descriptor.
func (b *ProjectBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<Project ToolsVersion="4.0" DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">` + "\n")

	sb.WriteString("  <PropertyGroup>\n")
	sb.WriteString("    <Configuration Condition=\" '$(Configuration)' == '' \">Debug</Configuration>\n")
	for _, p := range b.properties {
		fmt.Fprintf(&sb, "    %s\n", p)
	}
	sb.WriteString("  </PropertyGroup>\n")

	sb.WriteString("  <PropertyGroup Condition=\" '$(Configuration)|$(Platform)' == 'Debug|AnyCPU' \">\n")
	sb.WriteString("    <DebugSymbols>true</DebugSymbols>\n")
	if b.defines != "" {
		fmt.Fprintf(&sb, "    <DefineConstants>%s</DefineConstants>\n", b.defines)
	}
	sb.WriteString("  </PropertyGroup>\n")

	sb.WriteString("  <ItemGroup>\n")
	for _, r := range b.references {
		if r.hintPath == "" {
			fmt.Fprintf(&sb, "    <Reference Include=%q />\n", r.include)
			continue
		}
		fmt.Fprintf(&sb, "    <Reference Include=%q>\n      <HintPath>%s</HintPath>\n    </Reference>\n", r.include, r.hintPath)
	}
	sb.WriteString("  </ItemGroup>\n")

	if len(b.compile) > 0 {
		sb.WriteString("  <ItemGroup>\n")
		for _, c := range b.compile {
			fmt.Fprintf(&sb, "    <Compile Include=%q />\n", c)
		}
		sb.WriteString("  </ItemGroup>\n")
	}

	sb.WriteString(`  <Import Project="$(MSBuildToolsPath)\Microsoft.CSharp.targets" />` + "\n")
	sb.WriteString("</Project>\n")

	if b.crlf {
		return strings.ReplaceAll(sb.String(), "\n", "\r\n")
	}
	return sb.String()
}

// Solution renders a solution file listing the given project files under
// a random-looking project type GUID, with CRLF line endings.
func Solution(projects ...string) string {
	var sb strings.Builder
	sb.WriteString("\r\nMicrosoft Visual Studio Solution File, Format Version 11.00\r\n")
	sb.WriteString("# Visual Studio 2010\r\n")
	for i, p := range projects {
		name := strings.TrimSuffix(p, ".csproj")
		fmt.Fprintf(&sb, "Project(\"{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}\") = \"%s-generated\", \"%s\", \"{0000000%d-AAAA-BBBB-CCCC-DDDDDDDDDDDD}\"\r\n", name, p, i)
		sb.WriteString("EndProject\r\n")
	}
	sb.WriteString("Global\r\n")
	sb.WriteString("\tGlobalSection(SolutionProperties) = preSolution\r\n")
	sb.WriteString("\t\tHideSolutionNode = FALSE\r\n")
	sb.WriteString("\tEndGlobalSection\r\n")
	sb.WriteString("EndGlobal\r\n")
	return sb.String()
}
